package repomap

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxLineWidth = 100
	elision      = "⋮..."
	linePrefix   = "│"
)

// renderer turns ranked tags into text, caching file contents between calls
type renderer struct {
	root  string
	files map[string][]string
}

func newRenderer(root string) *renderer {
	return &renderer{
		root:  root,
		files: make(map[string][]string),
	}
}

func (r *renderer) lines(fname string) []string {
	if lines, ok := r.files[fname]; ok {
		return lines
	}
	bs, err := os.ReadFile(fname)
	var lines []string
	if err == nil {
		lines = strings.Split(strings.TrimRight(string(bs), "\n"), "\n")
	}
	r.files[fname] = lines
	return lines
}

// tree renders tags grouped by file, skipping the chat files
func (r *renderer) tree(tags []RankedTag, chatRel map[string]struct{}) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := make([]RankedTag, len(tags))
	copy(sorted, tags)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RelFname != sorted[j].RelFname {
			return sorted[i].RelFname < sorted[j].RelFname
		}
		return tagLine(sorted[i]) < tagLine(sorted[j])
	})

	var buf bytes.Buffer
	for i := 0; i < len(sorted); {
		rel := sorted[i].RelFname
		var (
			fname string
			lois  []int
		)
		j := i
		for ; j < len(sorted) && sorted[j].RelFname == rel; j++ {
			if tag := sorted[j].Tag; tag != nil {
				fname = tag.Fname
				lois = append(lois, tag.Line)
			}
		}
		i = j
		if _, ok := chatRel[rel]; ok {
			continue
		}
		if len(lois) == 0 {
			buf.WriteString("\n" + rel + "\n")
			continue
		}
		if fname == "" {
			fname = filepath.Join(r.root, filepath.FromSlash(rel))
		}
		buf.WriteString("\n" + rel + ":\n")
		buf.WriteString(r.render(fname, lois))
	}

	out := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	for i, line := range out {
		out[i] = truncate(line, maxLineWidth)
	}
	return strings.Join(out, "\n") + "\n"
}

// render shows the lines of interest of a file, eliding the gaps between them
func (r *renderer) render(fname string, lois []int) string {
	lines := r.lines(fname)
	sort.Ints(lois)
	var buf bytes.Buffer
	prev := -1
	for _, loi := range lois {
		if loi < 0 || loi >= len(lines) || loi == prev {
			continue
		}
		if loi > prev+1 {
			buf.WriteString(elision + "\n")
		}
		buf.WriteString(linePrefix + strings.TrimRight(lines[loi], "\r") + "\n")
		prev = loi
	}
	if prev == -1 {
		return ""
	}
	if prev < len(lines)-1 {
		buf.WriteString(elision + "\n")
	}
	return buf.String()
}

func tagLine(t RankedTag) int {
	if t.Tag == nil {
		return -1
	}
	return t.Tag.Line
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}
