package contextbuild

import (
	"regexp"
	"strings"
	"testing"

	"paper-chat-be/pkg/rag/retrieval"
)

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "plain title",
			title: "Glacier Lake Outburst Floods",
			want:  "Glacier_Lake_Outburst_Floods.pdf",
		},
		{
			name:  "punctuation stripped",
			title: "Floods: Causes & Effects (2021)",
			want:  "Floods_Causes_Effects_2021.pdf",
		},
		{
			name:  "hyphens kept",
			title: "Ice-Dam Failures",
			want:  "Ice-Dam_Failures.pdf",
		},
		{
			name:  "space runs collapse to one underscore",
			title: "Wide   Gaps Everywhere",
			want:  "Wide_Gaps_Everywhere.pdf",
		},
		{
			// Tabs are outside the safe set and get stripped before the
			// collapse pass ever sees them.
			name:  "tab is stripped, not collapsed",
			title: "Wide   Gaps\tEverywhere",
			want:  "Wide_GapsEverywhere.pdf",
		},
		{
			name:  "empty title",
			title: "",
			want:  ".pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveFilename(tt.title)
			if got != tt.want {
				t.Errorf("DeriveFilename(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestDeriveFilenameIsPureAndShapeConstrained(t *testing.T) {
	title := "A Very Long Title " + strings.Repeat("With Many Repeated Words ", 10)

	first := DeriveFilename(title)
	second := DeriveFilename(title)
	if first != second {
		t.Fatalf("derivation not deterministic: %q vs %q", first, second)
	}

	if !strings.HasSuffix(first, ".pdf") {
		t.Errorf("missing .pdf suffix: %q", first)
	}

	stem := strings.TrimSuffix(first, ".pdf")
	if len(stem) > 80 {
		t.Errorf("stem length = %d, want <= 80", len(stem))
	}

	valid := regexp.MustCompile(`^[A-Za-z0-9_\-]*$`)
	if !valid.MatchString(stem) {
		t.Errorf("stem contains characters outside the allowed set: %q", stem)
	}
}

func TestBuildContextBlock(t *testing.T) {
	result := &retrieval.Result{
		Texts: []retrieval.ContextItem{
			{Kind: "text", Title: "Glacier Paper", Page: 5, Content: "Moraine dams fail."},
			{Kind: "text", Title: "Glacier Paper", Page: 12, Content: "Peak discharge estimates."},
		},
		Images: []retrieval.ContextItem{
			{Kind: "image", Title: "Glacier Paper", Page: 9, Content: "Figure 3: lake extent over time", ImageURL: "https://img.example/fig3.png"},
		},
	}

	block := BuildContextBlock(result)

	for _, want := range []string{
		"Relevant Text:",
		`[From "Glacier Paper", Page 5]: Moraine dams fail.`,
		`[From "Glacier Paper", Page 12]: Peak discharge estimates.`,
		"Relevant Figures:",
		`[Figure from "Glacier Paper", Page 9]: Figure 3: lake extent over time`,
	} {
		if !strings.Contains(block, want) {
			t.Errorf("context block missing %q\nblock:\n%s", want, block)
		}
	}
}

func TestBuildContextBlockEmpty(t *testing.T) {
	block := BuildContextBlock(&retrieval.Result{})
	if block != "" {
		t.Errorf("expected empty block, got %q", block)
	}
}

func TestDedupSources(t *testing.T) {
	texts := []retrieval.ContextItem{
		{Title: "Glacier Paper", Page: 5},
		{Title: "Glacier Paper", Page: 12},
		{Title: "Other Paper", Page: 3},
		{Title: "Glacier Paper", Page: 7},
	}

	sources := DedupSources(texts)

	if len(sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2", len(sources))
	}
	if sources[0].Title != "Glacier Paper" || sources[0].Page != 5 {
		t.Errorf("sources[0] = %+v, want Glacier Paper page 5", sources[0])
	}
	if sources[0].PdfFile != "Glacier_Paper.pdf" {
		t.Errorf("sources[0].PdfFile = %q", sources[0].PdfFile)
	}
	if sources[1].Title != "Other Paper" || sources[1].Page != 3 {
		t.Errorf("sources[1] = %+v, want Other Paper page 3", sources[1])
	}
}
