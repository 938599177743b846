package assistant

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"noteassist/internal/chat"
	"noteassist/internal/command"
	"noteassist/internal/contextmgr"
	"noteassist/internal/notes"
	"noteassist/internal/provider"
	"noteassist/internal/storage"
	"noteassist/internal/vault"
)

func TestBuildMessagesLayout(t *testing.T) {
	history := []chat.Message{
		{Role: chat.RoleUser, Content: "q1"},
		{Role: chat.RoleAssistant, Content: "a1"},
	}
	got := BuildMessages("sys", history, "CTX", "what?")
	require.Len(t, got, 4)
	require.Equal(t, chat.Message{Role: chat.RoleSystem, Content: "sys"}, got[0])
	require.Equal(t, history, got[1:3])
	require.Equal(t, chat.RoleUser, got[3].Role)
	require.Equal(t, "Here is the context of the user's notes:\n\nCTX\n\nUser question: what?", got[3].Content)
}

func TestSystemPromptDescribesBothCommands(t *testing.T) {
	require.Contains(t, SystemPrompt, "CREATE_NOTE: [filename]")
	require.Contains(t, SystemPrompt, "IMPROVE_NOTE: [filename]")
}

func TestSendReportsContextCost(t *testing.T) {
	files := map[string]string{"Garden.md": "tomatoes along the south fence"}
	f := newFixture(t, files, testSettings(), func(o *Options) {
		o.Tokenizer = &contextmgr.Tokenizer{}
	})
	ss := f.svc.NewSession()

	reply, err := ss.Send(context.Background(), "garden")
	require.NoError(t, err)
	require.Positive(t, reply.Context.ContextTokens)
	require.Greater(t, reply.Context.Tokens, reply.Context.ContextTokens)
}

func TestSendPlainReplyWithContentMatches(t *testing.T) {
	files := map[string]string{
		"Alpha Journal.md": "met about xenon lamps",
		"Beta Log.md":      "XENON supplier called",
		"Gamma Memo.md":    "budget for Xenon",
		"Delta Draft.md":   "unrelated",
	}
	f := newFixture(t, files, testSettings())
	f.prov.replies = []string{"You have three notes about xenon."}
	ss := f.svc.NewSession()

	reply, err := ss.Send(context.Background(), "xenon")
	require.NoError(t, err)
	require.Equal(t, command.Plain, reply.Kind)
	require.Equal(t, "You have three notes about xenon.", reply.Text)
	require.Nil(t, reply.Write)
	require.Nil(t, reply.Draft)
	require.Equal(t, 3, reply.Context.Matched)
	require.False(t, reply.Context.Fallback)

	calls := f.prov.calls()
	require.Len(t, calls, 1)
	req := calls[0]
	require.Equal(t, "gpt-4", req.Model)
	require.Equal(t, 1000, req.MaxTokens)
	require.InDelta(t, 0.7, req.Temperature, 1e-6)
	require.Len(t, req.Messages, 2)
	userTurn := req.Messages[1].Content
	require.Contains(t, userTurn, "Found 3 potentially relevant notes:")
	for _, block := range []string{
		"--- Alpha Journal (Alpha Journal.md) ---\nmet about xenon lamps",
		"--- Beta Log (Beta Log.md) ---\nXENON supplier called",
		"--- Gamma Memo (Gamma Memo.md) ---\nbudget for Xenon",
	} {
		require.Contains(t, userTurn, block)
	}
	require.NotContains(t, userTurn, "Delta Draft")

	for rel, content := range files {
		require.Equal(t, content, f.read(t, rel))
	}
	docs, err := f.store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, len(files))

	require.Equal(t, []chat.Message{
		{Role: chat.RoleUser, Content: "xenon"},
		{Role: chat.RoleAssistant, Content: "You have three notes about xenon."},
	}, ss.History())
}

func TestSendImproveDraftConfirmScenario(t *testing.T) {
	f := newFixture(t, map[string]string{
		"Projects/Meeting Notes.md": "raw notes",
		"Archive/Meeting Notes.md":  "old copy",
	}, testSettings())
	require.NoError(t, f.store.SetActive("Projects/Meeting Notes.md"))
	body := "# Meeting\n\n- decisions\n- follow ups\n"
	f.prov.replies = []string{"IMPROVE_NOTE: Meeting Notes\n" + body}
	ss := f.svc.NewSession()
	ctx := context.Background()

	reply, err := ss.Send(ctx, "Please tidy my meeting notes")
	require.NoError(t, err)
	require.Equal(t, command.ImproveNote, reply.Kind)
	require.NotNil(t, reply.Draft)
	require.Equal(t, DraftPending, reply.Draft.Status)
	require.Equal(t, "Meeting Notes", reply.Draft.Name)
	require.Equal(t, body, reply.Draft.Body)
	require.Equal(t, 1, reply.Draft.TurnIndex)
	require.Equal(t, "raw notes", f.read(t, "Projects/Meeting Notes.md"), "draft must not write before confirm")

	res, err := ss.Confirm(ctx, reply.Draft.ID)
	require.NoError(t, err)
	require.Equal(t, notes.Result{Outcome: notes.Updated, Path: "Projects/Meeting Notes.md"}, res)
	require.Equal(t, body, f.read(t, "Projects/Meeting Notes.md"))
	require.Equal(t, "old copy", f.read(t, "Archive/Meeting Notes.md"))

	_, err = ss.Confirm(ctx, reply.Draft.ID)
	require.ErrorIs(t, err, ErrDraftClosed)
	require.ErrorIs(t, ss.Decline(ctx, reply.Draft.ID), ErrDraftClosed)

	d, ok := ss.Draft(reply.Draft.ID)
	require.True(t, ok)
	require.Equal(t, DraftApplied, d.Status)
	_, ok = ss.LatestPending()
	require.False(t, ok)
}

func TestOlderDraftStaysResolvable(t *testing.T) {
	f := newFixture(t, map[string]string{"Plan.md": "v1", "Budget.md": "b1"}, testSettings())
	f.prov.replies = []string{"IMPROVE_NOTE: Plan\nplan v2", "IMPROVE_NOTE: Budget\nbudget v2"}
	ss := f.svc.NewSession()
	ctx := context.Background()

	first, err := ss.Send(ctx, "improve plan")
	require.NoError(t, err)
	second, err := ss.Send(ctx, "improve budget")
	require.NoError(t, err)

	drafts := ss.Drafts()
	require.Len(t, drafts, 2)
	require.Equal(t, first.Draft.ID, drafts[0].ID)
	require.Equal(t, second.Draft.ID, drafts[1].ID)

	_, err = ss.Confirm(ctx, first.Draft.ID)
	require.NoError(t, err)
	require.Equal(t, "plan v2", f.read(t, "Plan.md"))
	require.Equal(t, "b1", f.read(t, "Budget.md"))

	latest, ok := ss.LatestPending()
	require.True(t, ok)
	require.Equal(t, second.Draft.ID, latest.ID)
	require.Equal(t, DraftApplied, ss.Drafts()[0].Status)
}

func TestDeclineDraftLeavesNoteUntouched(t *testing.T) {
	f := newFixture(t, map[string]string{"Plan.md": "v1"}, testSettings())
	f.prov.replies = []string{"IMPROVE_NOTE: Plan\nv2"}
	ss := f.svc.NewSession()
	ctx := context.Background()

	reply, err := ss.Send(ctx, "improve plan")
	require.NoError(t, err)
	latest, ok := ss.LatestPending()
	require.True(t, ok)
	require.Equal(t, reply.Draft.ID, latest.ID)

	require.NoError(t, ss.Decline(ctx, reply.Draft.ID))
	require.Equal(t, "v1", f.read(t, "Plan.md"))
	_, err = ss.Confirm(ctx, reply.Draft.ID)
	require.ErrorIs(t, err, ErrDraftClosed)
	_, err = ss.Confirm(ctx, "nope")
	require.ErrorIs(t, err, ErrDraftNotFound)
}

func TestConfirmFailureIsFinal(t *testing.T) {
	f := newFixture(t, nil, testSettings())
	f.prov.replies = []string{"IMPROVE_NOTE:   \nbody"}
	ss := f.svc.NewSession()
	ctx := context.Background()

	reply, err := ss.Send(ctx, "improve")
	require.NoError(t, err)
	require.Equal(t, command.ImproveNote, reply.Kind)

	_, err = ss.Confirm(ctx, reply.Draft.ID)
	var werr *notes.WriteError
	require.ErrorAs(t, err, &werr)
	d, _ := ss.Draft(reply.Draft.ID)
	require.Equal(t, DraftFailed, d.Status)

	_, err = ss.Confirm(ctx, reply.Draft.ID)
	require.ErrorIs(t, err, ErrDraftClosed)
}

func TestSendCreateNoteWritesImmediately(t *testing.T) {
	f := newFixture(t, nil, testSettings())
	f.prov.replies = []string{"CREATE_NOTE: Task List\n- buy milk\n- call mom\n"}
	ss := f.svc.NewSession()

	reply, err := ss.Send(context.Background(), "make me a task list")
	require.NoError(t, err)
	require.Equal(t, command.CreateNote, reply.Kind)
	require.Equal(t, "Task List", reply.Name)
	require.Equal(t, "- buy milk\n- call mom", reply.Text)
	require.NotNil(t, reply.Write)
	require.Equal(t, notes.Created, reply.Write.Outcome)
	require.Equal(t, "Daily Notes/Task List.md", reply.Write.Path)
	require.Equal(t, "- buy milk\n- call mom", f.read(t, "Daily Notes/Task List.md"))
	require.Len(t, ss.History(), 2)
}

func TestSendCreateNoteWriteFailureKeepsHistory(t *testing.T) {
	f := newFixture(t, nil, testSettings())
	writeNote(t, f.root, "Daily Notes/TASKS.md", "existing")
	f.prov.replies = []string{"CREATE_NOTE: tasks\nx"}
	// 列表被隐藏，解析不到已有文件，触发大小写冲突
	f.svc.writer = notes.NewWriter(listlessStore{f.store}, "Daily Notes", nil)
	ss := f.svc.NewSession()

	reply, err := ss.Send(context.Background(), "tasks please")
	require.ErrorIs(t, err, vault.ErrExists)
	require.Equal(t, command.CreateNote, reply.Kind)
	require.Nil(t, reply.Write)
	require.Equal(t, "existing", f.read(t, "Daily Notes/TASKS.md"))
	require.Len(t, ss.History(), 2)
}

type listlessStore struct{ *vault.FS }

func (listlessStore) List(context.Context) ([]vault.Document, error) { return nil, nil }

func TestSendDiagnosticReturnsParseError(t *testing.T) {
	f := newFixture(t, nil, testSettings())
	raw := "CREATE_NOTE: ???"
	f.prov.replies = []string{raw}
	ss := f.svc.NewSession()

	reply, err := ss.Send(context.Background(), "make a note")
	var perr *command.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, raw, perr.Raw)
	require.Equal(t, command.Diagnostic, reply.Kind)
	require.Equal(t, raw, reply.Text)
	docs, _ := f.store.List(context.Background())
	require.Empty(t, docs)
	require.Len(t, ss.History(), 2)
}

func TestSendFailureLeavesHistoryUnchanged(t *testing.T) {
	f := newFixture(t, nil, testSettings())
	f.prov.err = &provider.RequestError{Op: "chat completion", StatusCode: 401, Err: errors.New("bad key")}
	ss := f.svc.NewSession()

	_, err := ss.Send(context.Background(), "hello")
	var reqErr *provider.RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, 401, reqErr.StatusCode)
	require.Empty(t, ss.History())
}

func TestSendValidation(t *testing.T) {
	settings := testSettings()
	settings.APIKey = ""
	f := newFixture(t, nil, settings)
	ss := f.svc.NewSession()

	_, err := ss.Send(context.Background(), "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
	_, err = ss.Send(context.Background(), "hello")
	require.ErrorIs(t, err, ErrMissingCredential)
	require.Empty(t, f.prov.calls())
}

func TestHistoryWindowAfterTwelveExchanges(t *testing.T) {
	f := newFixture(t, nil, testSettings())
	for i := 1; i <= 12; i++ {
		f.prov.replies = append(f.prov.replies, fmt.Sprintf("answer %d", i))
	}
	ss := f.svc.NewSession()
	ctx := context.Background()
	for i := 1; i <= 12; i++ {
		_, err := ss.Send(ctx, fmt.Sprintf("question %d", i))
		require.NoError(t, err)
	}
	require.Len(t, ss.History(), 24)

	_, err := ss.Send(ctx, "question 13")
	require.NoError(t, err)
	calls := f.prov.calls()
	last := calls[len(calls)-1].Messages
	require.Len(t, last, 12)
	require.Equal(t, chat.RoleSystem, last[0].Role)
	history := last[1:11]
	require.Equal(t, chat.Message{Role: chat.RoleUser, Content: "question 8"}, history[0])
	require.Equal(t, chat.Message{Role: chat.RoleAssistant, Content: "answer 12"}, history[9])
	require.True(t, strings.HasSuffix(last[11].Content, "User question: question 13"))
}

func TestSessionJournalsOutcomes(t *testing.T) {
	journal, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	f := newFixture(t, map[string]string{"Plan.md": "v1"}, testSettings(), func(o *Options) { o.Journal = journal })
	f.prov.replies = []string{"CREATE_NOTE: Ideas\nfirst", "IMPROVE_NOTE: Plan\nv2"}
	ss := f.svc.NewSession()
	ctx := context.Background()

	_, err = ss.Send(ctx, "create ideas")
	require.NoError(t, err)
	reply, err := ss.Send(ctx, "improve plan")
	require.NoError(t, err)
	_, err = ss.Confirm(ctx, reply.Draft.ID)
	require.NoError(t, err)

	rec, err := journal.LoadDraft(ctx, reply.Draft.ID)
	require.NoError(t, err)
	require.Equal(t, string(DraftApplied), rec.Status)
	require.Equal(t, "Plan.md", rec.Path)

	acts, err := journal.ListActivity(ctx, 10)
	require.NoError(t, err)
	var actions []string
	for _, a := range acts {
		actions = append(actions, a.Action)
	}
	require.Equal(t, []string{"chat.confirm", "chat.improve", "chat.create"}, actions)
}
