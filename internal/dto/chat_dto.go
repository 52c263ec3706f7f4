package dto

// ChatTurn is one prior message of the client-held transcript.
type ChatTurn struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message     string     `json:"message" validate:"required"`
	ChatHistory []ChatTurn `json:"chatHistory" validate:"omitempty,dive"`
}

// ImageResult is one retrieved figure surfaced to the client.
type ImageResult struct {
	URL         string  `json:"url"`
	Source      string  `json:"source"`
	Page        int     `json:"page"`
	Description string  `json:"description"`
	PdfFile     string  `json:"pdfFile"`
	Score       float64 `json:"score,omitempty"`
}

// SourceEntry is one deduplicated source paper.
type SourceEntry struct {
	Title   string `json:"title"`
	Page    int    `json:"page"`
	PdfFile string `json:"pdfFile"`
}

type ChatResponse struct {
	Message string        `json:"message"`
	Images  []ImageResult `json:"images"`
	Sources []SourceEntry `json:"sources"`
}

// LinksResponse exposes the derived-filename -> hosted-URL table to the UI.
type LinksResponse struct {
	Links map[string]string `json:"links"`
}
