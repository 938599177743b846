package chat

// Roles used in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is an OpenAI-compatible chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History 只追加的会话轮次
// History is an append-only sequence of conversation turns.
type History struct {
	turns []Message
}

// Append adds turns in order. Appended turns are never modified.
func (h *History) Append(turns ...Message) {
	h.turns = append(h.turns, turns...)
}

// Len returns the number of turns recorded so far.
func (h *History) Len() int {
	return len(h.turns)
}

// Window returns a copy of the most recent n turns, oldest first.
func (h *History) Window(n int) []Message {
	if n <= 0 || len(h.turns) == 0 {
		return nil
	}
	start := len(h.turns) - n
	if start < 0 {
		start = 0
	}
	return append([]Message(nil), h.turns[start:]...)
}

// Turns returns a copy of every recorded turn.
func (h *History) Turns() []Message {
	return append([]Message(nil), h.turns...)
}
