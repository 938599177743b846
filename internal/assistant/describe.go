package assistant

import (
	"errors"

	"noteassist/internal/command"
	"noteassist/internal/dictation"
	"noteassist/internal/i18n"
	"noteassist/internal/notes"
	"noteassist/internal/provider"
	"noteassist/internal/storage"
)

// Describe 将错误转换为一行用户提示；action 用于选择“无结果”类提示
// Describe turns err into a one-line user notice. action picks the wording of
// ErrNoSuggestions ("tag", "backlinks", "calendar", "tasks").
func Describe(tr *i18n.I18n, action string, err error) string {
	if err == nil {
		return ""
	}
	var (
		reqErr   *provider.RequestError
		parseErr *command.ParseError
		writeErr *notes.WriteError
		permErr  *dictation.PermissionError
	)
	switch {
	case errors.Is(err, ErrMissingCredential):
		return tr.T("notice.missing_key")
	case errors.Is(err, ErrEmptyNote):
		return tr.T("notice.note_empty")
	case errors.Is(err, ErrNoActiveNote):
		return tr.T("notice.no_active")
	case errors.Is(err, ErrEmptyTranscript):
		return tr.T("notice.transcription_empty")
	case errors.Is(err, ErrEmptyMessage):
		return tr.T("chat.empty")
	case errors.Is(err, ErrDraftNotFound):
		return tr.T("draft.missing")
	case errors.Is(err, ErrDraftClosed):
		return tr.T("draft.closed")
	case errors.Is(err, storage.ErrNotFound):
		return tr.T("draft.unjournaled")
	case errors.Is(err, ErrNoSuggestions):
		switch action {
		case "backlinks":
			return tr.T("notice.backlinks_none")
		case "calendar":
			return tr.T("notice.calendar_none")
		case "tasks":
			return tr.T("notice.tasks_none")
		default:
			return tr.T("notice.tags_none")
		}
	case errors.As(err, &parseErr):
		return tr.T("chat.diagnostic", parseErr.Raw)
	case errors.As(err, &writeErr):
		return tr.T("error.write", writeErr.Error())
	case errors.As(err, &permErr):
		return tr.T("notice.mic_denied", permErr.Err)
	case errors.As(err, &reqErr):
		if reqErr.StatusCode > 0 {
			return tr.T("error.request_status", reqErr.StatusCode)
		}
		return tr.T("error.request", reqErr.Err)
	default:
		return tr.T("error.generic", err)
	}
}
