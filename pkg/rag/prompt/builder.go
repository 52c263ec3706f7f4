package prompt

import (
	"strings"

	"paper-chat-be/pkg/llm"
)

// Builder assembles the conversation sent to the language model:
// system instructions, trimmed prior history, then one user turn carrying
// the context block and the literal question.
type Builder struct {
	contextBlock string
	question     string
	history      []llm.Message
	historyLimit int
}

func NewBuilder(contextBlock, question string, history []llm.Message, historyLimit int) *Builder {
	return &Builder{
		contextBlock: contextBlock,
		question:     question,
		history:      history,
		historyLimit: historyLimit,
	}
}

// Messages builds the full conversation in provider-agnostic form.
func (b *Builder) Messages() []llm.Message {
	messages := make([]llm.Message, 0, len(b.history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemInstructions()})
	messages = append(messages, TrimHistory(b.history, b.historyLimit)...)
	messages = append(messages, llm.Message{Role: "user", Content: b.buildUserTurn()})
	return messages
}

// TrimHistory keeps the most recent limit turns, unmodified. A limit of
// zero (or less) forwards no history at all.
func TrimHistory(history []llm.Message, limit int) []llm.Message {
	if limit <= 0 {
		return nil
	}
	if len(history) <= limit {
		return history
	}
	return history[len(history)-limit:]
}

func systemInstructions() string {
	var prompt strings.Builder

	prompt.WriteString("You are a research assistant answering questions about a collection of scientific papers.\n\n")
	prompt.WriteString("Citation rules:\n")
	prompt.WriteString("- Always cite using the paper's full title and the page number, e.g. according to \"Paper Title\" (p. 12).\n")
	prompt.WriteString("- Never use generic numbered labels such as \"Source 1\" or \"Source N\".\n")
	prompt.WriteString("- When a relevant figure is provided, mention it explicitly by name and page.\n")

	return prompt.String()
}

func (b *Builder) buildUserTurn() string {
	var prompt strings.Builder

	if b.contextBlock != "" {
		prompt.WriteString("Context from the paper collection:\n\n")
		prompt.WriteString(b.contextBlock)
		prompt.WriteString("\n")
	}

	prompt.WriteString("Question: ")
	prompt.WriteString(b.question)
	prompt.WriteString("\n\nAnswer using only the context given above. If the context does not contain the answer, say so.")

	return prompt.String()
}
