// Package render draws console pages as aligned terminal tables, bar
// charts and JSON.
package render

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

// strict strips every tag. Backend free text (names, biographies, addresses)
// goes through it before reaching the terminal.
var strict = bluemonday.StrictPolicy()

// Clean removes markup and control characters from backend text.
func Clean(s string) string {
	// The sanitizer escapes plain text; the terminal wants it back.
	s = html.UnescapeString(strict.Sanitize(s))
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// Table writes headers, a divider and rows with columns padded to the
// widest visible cell.
func Table(out io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				continue
			}
			if l := visibleLen(cell); l > widths[i] {
				widths[i] = l
			}
		}
	}

	writeRow(out, headers, widths)
	writeDivider(out, widths)
	for _, row := range rows {
		writeRow(out, row, widths)
	}
}

func writeDivider(out io.Writer, widths []int) {
	for i, w := range widths {
		if i > 0 {
			fmt.Fprint(out, "  ")
		}
		fmt.Fprint(out, strings.Repeat("-", w))
	}
	fmt.Fprintln(out)
}

func writeRow(out io.Writer, cols []string, widths []int) {
	for i, w := range widths {
		val := ""
		if i < len(cols) {
			val = cols[i]
		}
		if i < len(widths)-1 {
			fmt.Fprint(out, padRight(val, w), "  ")
		} else {
			fmt.Fprint(out, val)
		}
	}
	fmt.Fprintln(out)
}

func padRight(v string, width int) string {
	pad := width - visibleLen(v)
	if pad <= 0 {
		return v
	}
	return v + strings.Repeat(" ", pad)
}

// visibleLen counts runes outside ANSI color sequences.
func visibleLen(s string) int {
	inEscape := false
	count := 0
	for _, r := range s {
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		if r == 0x1b {
			inEscape = true
			continue
		}
		count++
	}
	return count
}

// ColorStatus colors a lend status for the terminal.
func ColorStatus(status string) string {
	switch strings.ToLower(status) {
	case "available":
		return ansiGreen + status + ansiReset
	case "lent":
		return ansiYellow + status + ansiReset
	case "denied", "error":
		return ansiRed + status + ansiReset
	default:
		return status
	}
}

// PrintJSON writes v indented.
func PrintJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate shortens s to max runes, ending in "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// FormatTimeOrDash prints t in local time, or "-" when unset.
func FormatTimeOrDash(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
