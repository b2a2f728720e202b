package llm

// Model is one entry of the model selector offered to clients.
type Model struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Catalog lists the models offered by default, recommended model first.
func Catalog() []Model {
	return []Model{
		{ID: DefaultModel, Label: "Kimi K2 Instruct (recommended)"},
		{ID: "anthropic/claude-sonnet-4-20250514", Label: "Claude Sonnet 4"},
		{ID: "openai/gpt-5", Label: "GPT-5"},
		{ID: "google/gemini-2.5-pro", Label: "Gemini 2.5 Pro"},
	}
}
