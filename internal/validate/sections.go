package validate

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/ppiankov/incidentcheck/internal/model"
)

var md = goldmark.New()

// heading marks where a level-2 section starts in the source
type heading struct {
	title     string
	lineStart int // Offset of the heading's first line
	bodyStart int // Offset just past the heading (and its setext underline)
}

// ExtractSections splits the document body on level-2 headings.
// Deeper headings stay inside the enclosing section's body.
func ExtractSections(doc string) (model.SectionMap, []error) {
	src := []byte(StripFrontMatter(doc))
	root := md.Parser().Parse(text.NewReader(src))

	var headings []heading
	var occupied []span
	cursor := 0
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 2 {
			continue
		}
		if h.Lines().Len() == 0 {
			// A bare "##" carries no source segment; find its line instead
			if occupied == nil {
				occupied = blockSpans(root, src)
			}
			lineStart, bodyStart, found := findUntitledHeading(src, cursor, occupied)
			if !found {
				continue
			}
			headings = append(headings, heading{lineStart: lineStart, bodyStart: bodyStart})
			cursor = bodyStart
			continue
		}
		first := h.Lines().At(0)
		last := h.Lines().At(h.Lines().Len() - 1)

		lineStart := bytes.LastIndexByte(src[:first.Start], '\n') + 1
		bodyStart := lineEnd(src, last.Stop)
		if !isATXHeading(src[lineStart:]) {
			bodyStart = nextLine(src, bodyStart) // setext underline
		}

		headings = append(headings, heading{
			title:     headingText(h, src),
			lineStart: lineStart,
			bodyStart: bodyStart,
		})
		cursor = bodyStart
	}

	sections := model.SectionMap{}
	if len(headings) == 0 {
		return sections, []error{structural("", "no level-2 sections found")}
	}

	var errs []error
	for i, h := range headings {
		end := len(src)
		if i+1 < len(headings) {
			end = headings[i+1].lineStart
		}
		body := ""
		if h.bodyStart < end {
			body = strings.TrimSpace(string(src[h.bodyStart:end]))
		}

		switch {
		case h.title == "":
			errs = append(errs, structural("", "level-2 heading without a title"))
		case body == "":
			errs = append(errs, structural(h.title, fmt.Sprintf("section %q is empty", h.title)))
		case sections.Has(h.title):
			errs = append(errs, warning(h.title, fmt.Sprintf("duplicate section %q (first occurrence kept)", h.title)))
		default:
			sections = append(sections, model.Section{Title: h.title, Body: body})
		}
	}

	return sections, errs
}

// ValidateSections compares found sections against the required set.
// Additional sections are reported but do not invalidate the draft.
func ValidateSections(sections model.SectionMap) (bool, []error, []string, []string) {
	var errs []error
	var missing []string
	for _, req := range model.RequiredSections {
		if !sections.Has(req) {
			missing = append(missing, req)
			errs = append(errs, structural(req, "missing required section: "+req))
		}
	}

	var additional []string
	for _, title := range sections.Titles() {
		if !isRequiredSection(title) {
			additional = append(additional, title)
		}
	}

	return len(missing) == 0, errs, missing, additional
}

func isRequiredSection(title string) bool {
	for _, req := range model.RequiredSections {
		if strings.EqualFold(req, title) {
			return true
		}
	}
	return false
}

// headingText flattens a heading's inline content to plain text
func headingText(h *ast.Heading, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(h, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(b.String()), " ")
}

// lineEnd returns the offset just past the line containing pos
func lineEnd(src []byte, pos int) int {
	if pos > len(src) {
		return len(src)
	}
	if pos > 0 && src[pos-1] == '\n' {
		return pos
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// nextLine returns the offset of the line after the one starting at pos
func nextLine(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// untitledATX matches a level-2 ATX heading with no text, e.g. "##" or "## ##"
var untitledATX = regexp.MustCompile(`^ {0,3}##(?:[ \t]+#*)?[ \t]*$`)

// span is the byte range of a block's source lines
type span struct{ start, stop int }

// blockSpans collects the line ranges of every block with source lines, so
// a "##" inside a code block is not taken for a heading
func blockSpans(root ast.Node, src []byte) []span {
	var spans []span
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			first := lines.At(0)
			spans = append(spans, span{
				start: bytes.LastIndexByte(src[:first.Start], '\n') + 1,
				stop:  lines.At(lines.Len() - 1).Stop,
			})
		}
		return ast.WalkContinue, nil
	})
	return spans
}

// findUntitledHeading returns the first untitled level-2 heading line at or
// after from that no other block owns
func findUntitledHeading(src []byte, from int, occupied []span) (lineStart, bodyStart int, ok bool) {
	for pos := from; pos < len(src); {
		end := nextLine(src, pos)
		line := bytes.TrimRight(src[pos:end], "\r\n")
		if untitledATX.Match(line) && !insideSpan(pos, occupied) {
			return pos, end, true
		}
		pos = end
	}
	return 0, 0, false
}

func insideSpan(pos int, spans []span) bool {
	for _, sp := range spans {
		if pos >= sp.start && pos < sp.stop {
			return true
		}
	}
	return false
}

func isATXHeading(line []byte) bool {
	trimmed := bytes.TrimLeft(line, " ")
	return len(line)-len(trimmed) <= 3 && len(trimmed) > 0 && trimmed[0] == '#'
}
