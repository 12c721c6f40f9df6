package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

var errInputClosed = errors.New("input closed")

// prompter reads answers line by line. Passwords are masked when input is a
// terminal and read as plain lines otherwise, so scripts can pipe them in.
type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
	fd  int // -1 when input is not a terminal
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{sc: bufio.NewScanner(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
	}
	return p
}

// scan reads the next raw line.
func (p *prompter) scan() (string, bool) {
	if !p.sc.Scan() {
		return "", false
	}
	return p.sc.Text(), true
}

// line prints label and returns the trimmed answer.
func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, ok := p.scan()
	if !ok {
		return "", errInputClosed
	}
	return strings.TrimSpace(s), nil
}

// readPassword securely reads a password with masking
func (p *prompter) readPassword(label string) (string, error) {
	if p.fd < 0 {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	bytePassword, err := term.ReadPassword(p.fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(p.out) // Add newline after password input
	return strings.TrimSpace(string(bytePassword)), nil
}

// confirm asks a yes/no question; anything but y or yes is no.
func (p *prompter) confirm(question string) bool {
	answer, err := p.line(question + " [y/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// id prompts for a positive numeric id.
func (p *prompter) id(label string) (int64, error) {
	s, err := p.line(label)
	if err != nil {
		return 0, err
	}
	return parseID(s)
}

// optionalID is id, except that a blank answer yields zero.
func (p *prompter) optionalID(label string) (int64, error) {
	s, err := p.line(label)
	if err != nil || s == "" {
		return 0, err
	}
	return parseID(s)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id: %q", s)
	}
	return id, nil
}
