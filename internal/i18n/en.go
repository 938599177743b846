package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// UI (TUI/line mode)
	"panel.chat":        "AI Chat",
	"status.ready":      "Ready",
	"status.thinking":   "Thinking...",
	"status.tokens":     "~%d prompt tokens",
	"status.cancelled":  "Request cancelled.",
	"input.placeholder": "Ask about your notes... (Enter to send)",
	"keys.help":         "enter send • esc cancel • ctrl+y/ctrl+n apply/discard latest draft • ctrl+c quit",
	"keys.draft":        "ctrl+y apply • ctrl+n discard • /apply %d • /discard %d",
	"quit.pending":      "%d draft(s) still pending. Press ctrl+c again to quit.",
	"chat.welcome":      "Chatting with %d notes in %s. Type /exit to quit.",
	"chat.you":          "You",
	"chat.assistant":    "Assistant",

	// Drafts
	"draft.title":       "Draft #%d for %s",
	"draft.prompt":      "Apply this draft to \"%s\"? [y/N] ",
	"draft.applied":     "Updated note: %s",
	"draft.declined":    "Draft discarded.",
	"draft.closed":      "This draft has already been handled.",
	"draft.missing":     "No pending draft.",
	"draft.unknown":     "No draft #%s.",
	"draft.unjournaled": "That draft is not in the journal.",

	// Chat replies
	"chat.created":    "I've created the note \"%s\" in your vault!\n\n%s",
	"chat.diagnostic": "I tried to create a note, but the format was not recognized. Please copy this text and share it with your developer:\n\n%s",
	"chat.error":      "Sorry, I encountered an error. Please try again.",
	"chat.empty":      "Message is empty.",
	"chat.improved":   "Here is an improved draft of \"%s\":",

	// Notices
	"notice.missing_key":         "Please set your OpenAI API key in settings first",
	"notice.note_empty":          "Note is empty",
	"notice.no_active":           "No active note found",
	"notice.recording_started":   "Recording started... press Enter to stop",
	"notice.recording_stopped":   "Recording stopped, processing...",
	"notice.mic_denied":          "Could not access microphone: %s",
	"notice.transcription_added": "Transcription added to note",
	"notice.transcription_empty": "Transcription failed",
	"notice.tags_added":          "Added tags: %s",
	"notice.tags_none":           "No tags suggested",
	"notice.calendar_found":      "Found %d calendar items",
	"notice.calendar_none":       "No calendar items found",
	"notice.tasks_generated":     "Daily tasks generated: %s",
	"notice.tasks_none":          "No tasks found",
	"notice.backlinks_added":     "Added %d backlink suggestions",
	"notice.backlinks_none":      "No relevant backlinks found",
	"notice.note_created":        "Created new note: %s",
	"notice.note_updated":        "Updated note: %s",
	"notice.setting_saved":       "Saved %s to %s",

	// Errors
	"error.request":        "API request failed: %s",
	"error.request_status": "API request failed: %d",
	"error.write":          "Error creating/updating note: %s",
	"error.generic":        "Error: %s",
}
