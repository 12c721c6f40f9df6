package render

import (
	"bytes"
	"strings"
	"testing"

	"library-admin/library"
)

func TestTableAlignsIgnoringColor(t *testing.T) {
	var buf bytes.Buffer
	Table(&buf, []string{"ID", "Status"}, [][]string{
		{"1", ColorStatus("available")},
		{"22", "lent"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "ID  Status" || lines[1] != "--  ---------" {
		t.Fatalf("header = %q / %q", lines[0], lines[1])
	}
	if !strings.HasPrefix(lines[2], "1   ") || !strings.HasPrefix(lines[3], "22  lent") {
		t.Fatalf("rows = %q", lines[2:])
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"<b>Orwell</b>":                  "Orwell",
		"Secker & Warburg":               "Secker & Warburg",
		"<script>alert(1)</script>Title": "Title",
		"line\nbreak":                    "line break",
		"\x1b[31mred\x1b[0m":             "[31mred[0m",
		"  padded  ":                     "padded",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("The Fellowship of the Ring", 10); got != "The Fel..." {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := Truncate("Élodie Ünal", 4); got != "É..." {
		t.Fatalf("got %q", got)
	}
}

func TestBarChartScalesToMax(t *testing.T) {
	var buf bytes.Buffer
	BarChart(&buf, []library.MonthlyCount{
		{Month: "2026-01", Count: 10},
		{Month: "2026-02", Count: 5},
		{Month: "2026-03", Count: 1},
	}, 20)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	want := []string{
		"  2026-01 | " + strings.Repeat("#", 20) + " 10",
		"  2026-02 | " + strings.Repeat("#", 10) + " 5",
		"  2026-03 | " + strings.Repeat("#", 2) + " 1",
	}
	if len(lines) != len(want) {
		t.Fatalf("lines = %q", lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestBarChartSmallCountStillVisible(t *testing.T) {
	var buf bytes.Buffer
	BarChart(&buf, []library.MonthlyCount{{Month: "a", Count: 100}, {Month: "b", Count: 1}}, 10)
	if !strings.Contains(buf.String(), "b | # 1") {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestBarChartNegativeCounts(t *testing.T) {
	var buf bytes.Buffer
	BarChart(&buf, []library.MonthlyCount{{Month: "a", Count: -3}, {Month: "b", Count: 4}}, 8)
	if !strings.Contains(buf.String(), "a |  -3") || !strings.Contains(buf.String(), "b | ######## 4") {
		t.Fatalf("output = %q", buf.String())
	}

	buf.Reset()
	BarChart(&buf, []library.MonthlyCount{{Month: "a", Count: -1}}, 8)
	if buf.String() != "  a |  -1\n" {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestBooksShowsNAForMissingRefs(t *testing.T) {
	var buf bytes.Buffer
	Books(&buf, []library.Book{{ID: 1, Title: "Orphan"}})
	if strings.Count(buf.String(), "N/A") != 2 {
		t.Fatalf("output = %q", buf.String())
	}
}

func TestEmptyCollections(t *testing.T) {
	var buf bytes.Buffer
	Authors(&buf, nil)
	Users(&buf, nil)
	if buf.String() != "No authors found.\nNo users found.\n" {
		t.Fatalf("output = %q", buf.String())
	}
}
