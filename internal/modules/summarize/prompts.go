package summarize

// summaryPromptPrefix is the fixed instruction sent ahead of the
// extracted notes. The notes are appended verbatim after it.
const summaryPromptPrefix = "Please provide a concise and clear summary of the following student notes. " +
	"Focus on the main concepts, key facts, and important details. " +
	"Organize the summary logically, perhaps using bullet points or short paragraphs. " +
	"Ensure the summary is easy to understand for a student revising the material. " +
	"Here are the notes:\n\n"

// buildSummaryPrompt assembles the user prompt for one summarization
// call. maxInputChars > 0 truncates the notes first; 0 sends them whole.
func buildSummaryPrompt(text string, maxInputChars int) string {
	if maxInputChars > 0 {
		text = truncateText(text, maxInputChars)
	}
	return summaryPromptPrefix + text
}
