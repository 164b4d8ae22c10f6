package papers

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// minParagraphLength is the character floor below which a block is
	// dropped as noise.
	minParagraphLength = 50

	// maxParagraphLength forces a break once a block grows past it.
	maxParagraphLength = 1000

	// contextWindow is how many neighboring paragraphs on each side feed
	// a paragraph's context.
	contextWindow = 1
)

// sectionHeaderPattern recognizes the common research-paper section headers,
// optionally numbered.
var sectionHeaderPattern = regexp.MustCompile(`(?i)^[0-9.]*\s*(abstract|introduction|related\s+work|background|methodology|methods|experimental?\s+setup|implementation|evaluation|experiments|results|discussion|conclusion|references|bibliography|appendix)[\s:.]*$`)

// SplitParagraphs breaks a paper's plain-text body into paragraphs with
// section labels, 0-based positions, and neighbor-window context. Blank lines
// and recognized section headers delimit paragraphs; headers label the
// paragraphs that follow them but are not themselves returned.
func SplitParagraphs(paperID, text string) []*Paragraph {
	type block struct {
		text    string
		section string
	}

	var blocks []block
	var current []string
	section := "preamble"

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, " ")
		current = nil
		if len(joined) < minParagraphLength {
			return
		}
		blocks = append(blocks, block{text: joined, section: section})
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)

		if m := sectionHeaderPattern.FindStringSubmatch(line); m != nil {
			flush()
			section = strings.ToLower(strings.Join(strings.Fields(m[1]), " "))
			continue
		}

		if line == "" {
			flush()
			continue
		}

		current = append(current, line)
		if joined := strings.Join(current, " "); len(joined) > maxParagraphLength {
			blocks = append(blocks, block{text: joined, section: section})
			current = nil
		}
	}
	flush()

	// Drop exact duplicates while preserving order.
	seen := make(map[string]struct{}, len(blocks))
	unique := blocks[:0]
	for _, b := range blocks {
		if _, dup := seen[b.text]; dup {
			continue
		}
		seen[b.text] = struct{}{}
		unique = append(unique, b)
	}

	out := make([]*Paragraph, len(unique))
	for i, b := range unique {
		out[i] = &Paragraph{
			ID:             fmt.Sprintf("%s:p%d", paperID, i),
			PaperID:        paperID,
			Section:        b.section,
			ParagraphIndex: i,
			Text:           b.text,
		}
	}

	for i := range out {
		start := i - contextWindow
		if start < 0 {
			start = 0
		}
		end := i + contextWindow + 1
		if end > len(out) {
			end = len(out)
		}
		parts := make([]string, 0, end-start)
		for j := start; j < end; j++ {
			parts = append(parts, out[j].Text)
		}
		out[i].Context = strings.Join(parts, "\n\n")
	}

	return out
}
