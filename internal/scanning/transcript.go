package scanning

import "strings"

// transcribePrompt is the shared prompt used by the LLM-backed OCR engines.
// The models are used purely as OCR: field extraction stays in the pattern rules.
const transcribePrompt = `You are an OCR engine. Transcribe all text in this scanned invoice page exactly as printed.

Rules:
- Output one printed line per line of output, top to bottom, left to right
- Keep labels, punctuation, currency symbols and numbers exactly as they appear
- Do not correct, translate, summarise or reorder anything
- Do not add commentary, headings or explanations
- Do not use markdown code blocks`

// cleanTranscript strips the markdown fences some models wrap around their output
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	// Remove the opening fence and any language tag on its line
	if i := strings.Index(text, "\n"); i >= 0 {
		text = text[i+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
