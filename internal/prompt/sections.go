package prompt

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Optional section names understood by the renderer.
const (
	SectionIntro         = "intro"
	SectionOpponentIntro = "opponentIntro"
	SectionGameLength    = "gameLength"
	SectionCommunicate   = "communicate"
	SectionChoose        = "choose"
)

var sectionNames = []string{
	SectionIntro,
	SectionOpponentIntro,
	SectionGameLength,
	SectionCommunicate,
	SectionChoose,
}

// Section is one optional block of the form {name}:[body].
// Start and End delimit the whole block in the template, markers included.
type Section struct {
	Name  string
	Start int
	End   int
	Body  string
}

// ParseSections returns the first occurrence of every known section,
// ordered by position in the template.
func ParseSections(tmpl string) []Section {
	var sections []Section
	for _, name := range sectionNames {
		if s, ok := findSection(tmpl, name); ok {
			sections = append(sections, s)
		}
	}
	sort.Slice(sections, func(i, j int) bool { return sections[i].Start < sections[j].Start })
	return sections
}

// findSection locates "{name}:", optional whitespace, then a bracketed body
// closed by the first following ']'.
func findSection(tmpl, name string) (Section, bool) {
	marker := "{" + name + "}:"
	offset := 0
	for {
		idx := strings.Index(tmpl[offset:], marker)
		if idx < 0 {
			return Section{}, false
		}
		start := offset + idx
		pos := start + len(marker)
		for pos < len(tmpl) {
			r, size := utf8.DecodeRuneInString(tmpl[pos:])
			if !unicode.IsSpace(r) {
				break
			}
			pos += size
		}
		if pos < len(tmpl) && tmpl[pos] == '[' {
			closing := strings.IndexByte(tmpl[pos+1:], ']')
			if closing < 0 {
				return Section{}, false
			}
			bodyEnd := pos + 1 + closing
			return Section{
				Name:  name,
				Start: start,
				End:   bodyEnd + 1,
				Body:  tmpl[pos+1 : bodyEnd],
			}, true
		}
		offset = start + 1
	}
}

// applySections keeps the body of sections for which keep reports true and
// drops the others entirely. Sections overlapping an earlier one are ignored.
func applySections(tmpl string, sections []Section, keep func(Section) bool) string {
	var b strings.Builder
	b.Grow(len(tmpl))
	cursor := 0
	for _, s := range sections {
		if s.Start < cursor {
			continue
		}
		b.WriteString(tmpl[cursor:s.Start])
		if keep(s) {
			b.WriteString(s.Body)
		}
		cursor = s.End
	}
	b.WriteString(tmpl[cursor:])
	return b.String()
}
