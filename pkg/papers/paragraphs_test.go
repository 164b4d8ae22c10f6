package papers

import (
	"fmt"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SplitParagraphs", func() {
	const body = `Introduction

This opening paragraph describes the motivation for the work in enough words to pass the length floor.

This second paragraph elaborates on the problem statement with additional sentences about prior art.

Methods

The methodology paragraph explains the experimental design and the datasets used for evaluation.`

	It("splits on blank lines and labels sections", func() {
		paras := SplitParagraphs("p1", body)
		Expect(paras).To(HaveLen(3))

		Expect(paras[0].Section).To(Equal("introduction"))
		Expect(paras[1].Section).To(Equal("introduction"))
		Expect(paras[2].Section).To(Equal("methods"))
	})

	It("assigns sequential ids and indices", func() {
		paras := SplitParagraphs("p1", body)
		for i, p := range paras {
			Expect(p.ID).To(Equal(fmt.Sprintf("p1:p%d", i)))
			Expect(p.PaperID).To(Equal("p1"))
			Expect(p.ParagraphIndex).To(Equal(i))
		}
	})

	It("does not return headers as paragraphs", func() {
		paras := SplitParagraphs("p1", body)
		for _, p := range paras {
			Expect(p.Text).NotTo(Equal("Introduction"))
			Expect(p.Text).NotTo(Equal("Methods"))
		}
	})

	It("recognizes numbered section headers", func() {
		text := "1. Introduction\n\nA paragraph that is clearly long enough to survive the minimum length filter."
		paras := SplitParagraphs("p1", text)
		Expect(paras).To(HaveLen(1))
		Expect(paras[0].Section).To(Equal("introduction"))
	})

	It("labels text before any header as preamble", func() {
		text := "A leading paragraph that appears before any recognized section header in the document."
		paras := SplitParagraphs("p1", text)
		Expect(paras).To(HaveLen(1))
		Expect(paras[0].Section).To(Equal("preamble"))
	})

	It("drops blocks below the minimum length", func() {
		paras := SplitParagraphs("p1", "Too short.\n\nThis one, on the other hand, has more than enough characters to be kept around.")
		Expect(paras).To(HaveLen(1))
	})

	It("drops exact duplicate blocks", func() {
		dup := "This duplicated paragraph is long enough to be kept but should appear only a single time."
		paras := SplitParagraphs("p1", dup+"\n\n"+dup)
		Expect(paras).To(HaveLen(1))
	})

	It("breaks oversized blocks", func() {
		line := strings.TrimSpace(strings.Repeat("a reasonably long line of text ", 3))
		lines := make([]string, 30)
		for i := range lines {
			lines[i] = fmt.Sprintf("%s %02d", line, i)
		}
		paras := SplitParagraphs("p1", strings.Join(lines, "\n"))
		Expect(len(paras)).To(BeNumerically(">", 1))
		for _, p := range paras[:len(paras)-1] {
			Expect(len(p.Text)).To(BeNumerically(">", maxParagraphLength))
		}
	})

	It("builds context from neighboring paragraphs", func() {
		paras := SplitParagraphs("p1", body)
		Expect(paras).To(HaveLen(3))

		Expect(paras[0].Context).To(Equal(paras[0].Text + "\n\n" + paras[1].Text))
		Expect(paras[1].Context).To(Equal(paras[0].Text + "\n\n" + paras[1].Text + "\n\n" + paras[2].Text))
		Expect(paras[2].Context).To(Equal(paras[1].Text + "\n\n" + paras[2].Text))
	})

	It("returns nothing for empty input", func() {
		Expect(SplitParagraphs("p1", "")).To(BeEmpty())
	})
})
