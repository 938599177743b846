package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/glamour"

	"noteassist/internal/assistant"
	"noteassist/internal/command"
	"noteassist/internal/i18n"
)

// RenderMarkdown 使用 Glamour 渲染 markdown 文本
// RenderMarkdown renders markdown text using Glamour
func RenderMarkdown(content string, width int) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content
	}

	return strings.TrimRight(rendered, "\n")
}

// FormatReply 把一次对话结果转换为聊天记录中显示的文本
// FormatReply returns the transcript text for the outcome of Session.Send.
// Both the panel and line mode use it.
func FormatReply(tr *i18n.I18n, r assistant.Reply, err error) string {
	if r.Raw == "" {
		if err == nil {
			return ""
		}
		if errors.Is(err, assistant.ErrMissingCredential) || errors.Is(err, assistant.ErrEmptyMessage) {
			return assistant.Describe(tr, "chat", err)
		}
		return tr.T("chat.error")
	}

	switch r.Kind {
	case command.CreateNote:
		if err != nil {
			return assistant.Describe(tr, "chat", err)
		}
		return tr.T("chat.created", r.Name, r.Text)
	case command.ImproveNote:
		return tr.T("chat.improved", r.Name) + "\n\n" + r.Text
	case command.Diagnostic:
		return tr.T("chat.diagnostic", r.Raw)
	default:
		return r.Text
	}
}
