package assistant

import (
	"fmt"
	"strings"

	"noteassist/internal/chat"
)

const (
	chatMaxTokens      = 1000
	chatTemperature    = 0.7
	historyWindow      = 10
	tagMaxTokens       = 100
	tasksMaxTokens     = 200
	backlinksMaxTokens = 150
)

// SystemPrompt is the fixed instruction sent first in every chat request.
const SystemPrompt = `You are an AI assistant that helps users interact with their notes. You can see their notes and help them organize, search, and analyze their content.

IMPORTANT GUIDELINES:
1. Be thorough and detailed in your responses. Don't just give brief summaries.
2. When asked about specific notes, search through ALL the provided context carefully.
3. If you find relevant information, include it in your response, even if it wasn't explicitly asked for.
4. When referencing notes, use the exact note names and file paths provided.
5. If you can't find something, suggest what might be a similar note or ask for clarification.

IMPORTANT: When the user asks you to create a note or task list, respond with a special format that includes the action to take:

CREATE_NOTE: [filename]
[content]

For example:
- If they ask for a task list, respond with: CREATE_NOTE: Task List
- [content of the task list]
- If they ask for a new note, respond with: CREATE_NOTE: Note Title
- [content of the note]

The system will create the note file automatically when it sees this format.

IMPORTANT: When the user asks you to improve, reformat, or rewrite an existing note, respond with this format:

IMPROVE_NOTE: [filename]
[improved content]

Do NOT update the note directly. The system will show the user a draft and ask for approval before updating the note.`

// BuildMessages assembles one chat request: the system instruction, the
// given history turns and a final user turn carrying the gathered context.
func BuildMessages(system string, history []chat.Message, contextText, message string) []chat.Message {
	out := make([]chat.Message, 0, len(history)+2)
	out = append(out, chat.Message{Role: chat.RoleSystem, Content: system})
	out = append(out, history...)
	out = append(out, chat.Message{
		Role:    chat.RoleUser,
		Content: fmt.Sprintf("Here is the context of the user's notes:\n\n%s\n\nUser question: %s", contextText, message),
	})
	return out
}

func tagPrompt(content string) string {
	return "Analyze this note and suggest 3-5 relevant tags for organization. Return only the tags separated by commas, no explanations:\n\n" + content
}

func tasksPrompt(content string) string {
	return "Extract actionable tasks from this note. Return only a bullet list of tasks, no explanations:\n\n" + content
}

func backlinksPrompt(content string, names []string) string {
	return fmt.Sprintf("Based on this note content, suggest which of these existing notes would be good to link to. Return only the note names separated by commas:\n\nNote content: %s\n\nExisting notes: %s",
		content, strings.Join(names, ", "))
}
