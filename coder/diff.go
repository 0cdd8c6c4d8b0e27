package coder

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

var (
	// ErrHunkNotFound is returned when the lines a hunk removes or keeps are not in the file
	ErrHunkNotFound = errors.New("hunk does not match the file")
	// ErrEmptyDiff is returned when a diff contains no hunk
	ErrEmptyDiff = errors.New("diff contains no changes")
)

// Line is a line of a hunk. Op is ' ' for context, '-' for removal and '+' for addition.
type Line struct {
	Op   byte
	Text string
}

// Hunk is one change
type Hunk struct {
	Lines []Line
}

// Before returns the lines the hunk expects in the file
func (h Hunk) Before() []string {
	var ret []string
	for _, l := range h.Lines {
		if l.Op != '+' {
			ret = append(ret, l.Text)
		}
	}
	return ret
}

// After returns the lines the hunk leaves in the file
func (h Hunk) After() []string {
	var ret []string
	for _, l := range h.Lines {
		if l.Op != '-' {
			ret = append(ret, l.Text)
		}
	}
	return ret
}

// NormalizeDiff turns the loose unified diff a language model writes into one
// go-diff can parse: code fences are dropped, missing file headers are added for
// fname, and hunk headers are rewritten with counts matching their bodies.
// Line numbers are not trusted; hunks are located by content.
func NormalizeDiff(raw string, fname string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	var (
		out     []string
		body    []string
		inHunk  bool
		headers bool
	)
	flush := func() {
		if !inHunk {
			return
		}
		for len(body) > 0 && body[len(body)-1] == " " {
			body = body[:len(body)-1]
		}
		var orig, next int
		for _, l := range body {
			switch l[0] {
			case ' ':
				orig++
				next++
			case '-':
				orig++
			case '+':
				next++
			}
		}
		out = append(out, fmt.Sprintf("@@ -%d,%d +%d,%d @@", 1, orig, 1, next))
		out = append(out, body...)
		body = body[:0]
		inHunk = false
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "```"):
			continue
		case strings.HasPrefix(line, "--- "):
			flush()
			out = append(out, line)
			headers = true
			continue
		case strings.HasPrefix(line, "+++ "):
			flush()
			if !headers {
				out = append(out, "--- "+fname)
			}
			out = append(out, line)
			headers = true
			continue
		case strings.HasPrefix(line, "@@"):
			flush()
			if !headers {
				out = append(out, "--- "+fname, "+++ "+fname)
				headers = true
			}
			inHunk = true
			continue
		}
		if !inHunk {
			if headers && (strings.HasPrefix(line, "-") || strings.HasPrefix(line, "+") || strings.HasPrefix(line, " ")) {
				// a hunk without its @@ line
				inHunk = true
			} else {
				continue
			}
		}
		switch {
		case line == "":
			body = append(body, " ")
		case strings.HasPrefix(line, `\`):
			continue
		case line[0] == ' ' || line[0] == '-' || line[0] == '+':
			body = append(body, line)
		default:
			body = append(body, " "+line)
		}
	}
	flush()
	if len(out) == 0 {
		return ""
	}
	return strings.Join(out, "\n") + "\n"
}

// ParseHunks normalizes and parses a diff into hunks
func ParseHunks(raw string, fname string) ([]Hunk, error) {
	normalized := NormalizeDiff(raw, fname)
	if normalized == "" {
		return nil, ErrEmptyDiff
	}
	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(normalized))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff: %w", err)
	}
	var hunks []Hunk
	for _, fd := range fileDiffs {
		for _, h := range fd.Hunks {
			hunks = append(hunks, toHunk(h))
		}
	}
	if len(hunks) == 0 {
		return nil, ErrEmptyDiff
	}
	return hunks, nil
}

func toHunk(h *godiff.Hunk) Hunk {
	var ret Hunk
	for _, line := range strings.Split(strings.TrimSuffix(string(h.Body), "\n"), "\n") {
		if line == "" {
			ret.Lines = append(ret.Lines, Line{Op: ' '})
			continue
		}
		switch line[0] {
		case ' ', '-', '+':
			ret.Lines = append(ret.Lines, Line{Op: line[0], Text: line[1:]})
		}
	}
	return ret
}

// Apply applies the hunks of raw to content, all or nothing
func Apply(content string, raw string, fname string) (string, error) {
	hunks, err := ParseHunks(raw, fname)
	if err != nil {
		return "", err
	}
	return ApplyHunks(content, hunks)
}

// ApplyHunks replaces the lines every hunk expects with the lines it leaves.
// Hunks are matched exactly first, then ignoring surrounding whitespace; the
// file's own context lines are kept either way. A hunk expecting no lines
// appends to the content.
func ApplyHunks(content string, hunks []Hunk) (string, error) {
	trailingNewline := content == "" || strings.HasSuffix(content, "\n")
	var lines []string
	if content != "" {
		lines = strings.Split(strings.TrimSuffix(content, "\n"), "\n")
	}
	cursor := 0
	for i, h := range hunks {
		before := h.Before()
		if len(before) == 0 {
			lines = append(lines, h.After()...)
			cursor = len(lines)
			continue
		}
		pos := find(lines, before, cursor)
		if pos < 0 {
			pos = find(lines, before, 0)
		}
		if pos < 0 {
			return "", fmt.Errorf("%w: hunk %d:\n%s", ErrHunkNotFound, i+1, strings.Join(before, "\n"))
		}
		updated := make([]string, 0, len(lines)+len(h.Lines))
		updated = append(updated, lines[:pos]...)
		k := pos
		for _, l := range h.Lines {
			switch l.Op {
			case ' ':
				updated = append(updated, lines[k])
				k++
			case '-':
				k++
			case '+':
				updated = append(updated, l.Text)
			}
		}
		cursor = len(updated)
		updated = append(updated, lines[k:]...)
		lines = updated
	}
	var buf bytes.Buffer
	buf.WriteString(strings.Join(lines, "\n"))
	if trailingNewline && len(lines) > 0 {
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// find returns the index of the first occurrence of needle in lines at or after from
func find(lines []string, needle []string, from int) int {
	for _, equal := range []func(a, b string) bool{exactEqual, looseEqual} {
		for i := from; i+len(needle) <= len(lines); i++ {
			matched := true
			for j := range needle {
				if !equal(lines[i+j], needle[j]) {
					matched = false
					break
				}
			}
			if matched {
				return i
			}
		}
	}
	return -1
}

func exactEqual(a, b string) bool {
	return strings.TrimRight(a, "\r") == b
}

func looseEqual(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}
