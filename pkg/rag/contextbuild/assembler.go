package contextbuild

import (
	"fmt"
	"regexp"
	"strings"

	"paper-chat-be/pkg/rag/retrieval"
)

// SourcePaper is a deduplicated source document reference. Papers are
// identified by title; two distinct papers sharing a title would collide.
type SourcePaper struct {
	Title   string
	Page    int
	PdfFile string
}

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9 \-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// DeriveFilename maps a paper title to a filesystem-safe pdf filename.
// The derivation is pure: the UI rebuilds document links from the same
// input, and any divergence breaks those links silently.
func DeriveFilename(title string) string {
	name := unsafeChars.ReplaceAllString(title, "")
	name = whitespace.ReplaceAllString(name, "_")
	if len(name) > 80 {
		name = name[:80]
	}
	return name + ".pdf"
}

// BuildContextBlock formats surviving items into the single prompt-ready
// text block, tagged with paper title and page, in retrieval-rank order.
func BuildContextBlock(result *retrieval.Result) string {
	var block strings.Builder

	if len(result.Texts) > 0 {
		block.WriteString("Relevant Text:\n")
		for _, item := range result.Texts {
			block.WriteString(fmt.Sprintf("[From %q, Page %d]: %s\n\n", item.Title, item.Page, item.Content))
		}
	}

	if len(result.Images) > 0 {
		block.WriteString("Relevant Figures:\n")
		for _, item := range result.Images {
			block.WriteString(fmt.Sprintf("[Figure from %q, Page %d]: %s\n\n", item.Title, item.Page, item.Content))
		}
	}

	return block.String()
}

// DedupSources collapses text items into one SourcePaper per title.
// First occurrence wins, keeping the first-ranked page even when the paper
// has passages on several pages.
func DedupSources(texts []retrieval.ContextItem) []SourcePaper {
	seen := make(map[string]bool, len(texts))
	sources := make([]SourcePaper, 0, len(texts))

	for _, item := range texts {
		if seen[item.Title] {
			continue
		}
		seen[item.Title] = true
		sources = append(sources, SourcePaper{
			Title:   item.Title,
			Page:    item.Page,
			PdfFile: DeriveFilename(item.Title),
		})
	}

	return sources
}
