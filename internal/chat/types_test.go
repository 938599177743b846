package chat

import "testing"

func TestHistoryWindow(t *testing.T) {
	var h History
	if got := h.Window(10); got != nil {
		t.Fatalf("empty window=%v, want nil", got)
	}
	for i := 0; i < 24; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		h.Append(Message{Role: role, Content: string(rune('a' + i))})
	}
	got := h.Window(10)
	if len(got) != 10 {
		t.Fatalf("window len=%d, want 10", len(got))
	}
	if got[0].Content != string(rune('a'+14)) || got[9].Content != string(rune('a'+23)) {
		t.Fatalf("window not oldest-first tail: %+v", got)
	}

	got[0].Content = "mutated"
	if h.Turns()[14].Content == "mutated" {
		t.Fatal("window must not alias history storage")
	}
}

func TestHistoryWindowShorterThanLimit(t *testing.T) {
	var h History
	h.Append(Message{Role: RoleUser, Content: "hi"}, Message{Role: RoleAssistant, Content: "hello"})
	if got := h.Window(10); len(got) != 2 || got[0].Role != RoleUser {
		t.Fatalf("unexpected window: %+v", got)
	}
	if h.Len() != 2 {
		t.Fatalf("Len()=%d, want 2", h.Len())
	}
}
