package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"noteassist/internal/chat"
	"noteassist/internal/command"
	"noteassist/internal/notes"
	"noteassist/internal/provider"
	"noteassist/internal/storage"
)

var (
	ErrEmptyMessage  = errors.New("message is empty")
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftClosed   = errors.New("draft already handled")
)

type DraftStatus string

const (
	DraftPending  DraftStatus = "pending"
	DraftApplying DraftStatus = "applying"
	DraftApplied  DraftStatus = "applied"
	DraftFailed   DraftStatus = "failed"
	DraftDeclined DraftStatus = "declined"
)

// Draft 待确认的改写草稿，确认前不会写入任何内容
// Draft is a proposed full replacement of a note. Nothing is written until it is confirmed.
type Draft struct {
	ID     string
	Name   string
	Body   string
	Status DraftStatus
	// TurnIndex is the history index of the assistant turn that proposed it.
	TurnIndex int
	Path      string
	CreatedAt time.Time
}

// Reply 一次对话的结果
// Reply is the interpreted outcome of one chat message.
type Reply struct {
	Kind command.Kind
	// Raw is the assistant reply exactly as received.
	Raw string
	// Text is what to display: the reply for Plain and Diagnostic, the note body otherwise.
	Text  string
	Name  string
	Draft *Draft
	Write *notes.Result
	// Context 描述本次检索使用的笔记
	Context ContextInfo
}

type ContextInfo struct {
	Notes    int
	Matched  int
	Fallback bool

	// ContextTokens prices the gathered notes alone; Tokens the whole request.
	ContextTokens int
	Tokens        int
}

// Session 一次对话会话；历史只保存在内存中
// Session is one chat conversation. History lives in memory only.
type Session struct {
	svc *Service

	mu      sync.Mutex
	history chat.History
	drafts  map[string]*Draft
	order   []string
}

func (s *Service) NewSession() *Session {
	return &Session{svc: s, drafts: make(map[string]*Draft)}
}

// Send gathers context for message, asks the chat model and interprets the reply.
//
// On a failed completion history is unchanged. On success the user turn and
// the raw assistant reply are appended before the reply is acted on: a
// CREATE_NOTE reply is written at once, an IMPROVE_NOTE reply becomes a
// pending draft, and an unrecognised CREATE_NOTE reply is returned together
// with a *command.ParseError.
func (ss *Session) Send(ctx context.Context, message string) (Reply, error) {
	s := ss.svc
	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrEmptyMessage
	}
	if err := s.RequireCredential(); err != nil {
		return Reply{}, err
	}

	docs, err := s.store.List(ctx)
	if err != nil {
		return Reply{}, fmt.Errorf("list notes: %w", err)
	}
	gathered := s.gatherer.Gather(ctx, docs, message)

	ss.mu.Lock()
	window := ss.history.Window(historyWindow)
	ss.mu.Unlock()

	messages := BuildMessages(SystemPrompt, window, gathered.Text, message)
	info := ContextInfo{
		Notes:    len(docs),
		Matched:  gathered.Matched,
		Fallback: gathered.Fallback,

		ContextTokens: gathered.Tokens,
		Tokens:        s.EstimateTokens(messages),
	}
	s.logger.Debug("chat request",
		zap.Int("notes", info.Notes),
		zap.Int("matched", info.Matched),
		zap.Bool("fallback", info.Fallback),
		zap.Int("history", len(window)),
		zap.Int("context_tokens", info.ContextTokens),
		zap.Int("prompt_tokens", info.Tokens),
	)

	resp, err := s.provider.Chat(ctx, provider.ChatRequest{
		Model:       s.settings.ChatModel,
		Messages:    messages,
		MaxTokens:   chatMaxTokens,
		Temperature: chatTemperature,
	})
	if err != nil {
		s.record(ctx, "chat", "", err)
		return Reply{}, err
	}

	res := command.Interpret(resp.Content)
	reply := Reply{Kind: res.Kind, Raw: resp.Content, Text: resp.Content, Name: res.Name, Context: info}

	ss.mu.Lock()
	ss.history.Append(
		chat.Message{Role: chat.RoleUser, Content: message},
		chat.Message{Role: chat.RoleAssistant, Content: resp.Content},
	)
	if res.Kind == command.ImproveNote {
		d := &Draft{
			ID:        uuid.NewString(),
			Name:      res.Name,
			Body:      res.Body,
			Status:    DraftPending,
			TurnIndex: ss.history.Len() - 1,
			CreatedAt: s.now(),
		}
		ss.drafts[d.ID] = d
		ss.order = append(ss.order, d.ID)
		cp := *d
		reply.Draft = &cp
	}
	ss.mu.Unlock()

	switch res.Kind {
	case command.CreateNote:
		reply.Text = res.Body
		written, err := s.writer.Upsert(ctx, res.Name, res.Body)
		if err != nil {
			s.record(ctx, "chat.create", res.Name, err)
			return reply, err
		}
		s.recordOK(ctx, "chat.create", written.Path, written.Outcome.String())
		reply.Write = &written
	case command.ImproveNote:
		reply.Text = res.Body
		s.journalDraft(ctx, *reply.Draft)
		s.recordOK(ctx, "chat.improve", res.Name, "draft "+reply.Draft.ID)
	case command.Diagnostic:
		perr := res.Err()
		s.record(ctx, "chat.diagnostic", "", perr)
		return reply, perr
	}
	return reply, nil
}

// Confirm writes a pending draft through the note writer. Each draft gets at
// most one write attempt; later calls fail with ErrDraftClosed.
func (ss *Session) Confirm(ctx context.Context, id string) (notes.Result, error) {
	s := ss.svc
	ss.mu.Lock()
	d, ok := ss.drafts[id]
	if !ok {
		ss.mu.Unlock()
		return notes.Result{}, ErrDraftNotFound
	}
	if d.Status != DraftPending {
		ss.mu.Unlock()
		return notes.Result{}, ErrDraftClosed
	}
	d.Status = DraftApplying
	name, body := d.Name, d.Body
	ss.mu.Unlock()

	res, err := s.writer.Upsert(ctx, name, body)

	ss.mu.Lock()
	if err != nil {
		d.Status = DraftFailed
	} else {
		d.Status = DraftApplied
		d.Path = res.Path
	}
	status := d.Status
	ss.mu.Unlock()

	s.resolveDraft(ctx, id, status, res.Path)
	if err != nil {
		s.record(ctx, "chat.confirm", name, err)
		return notes.Result{}, err
	}
	s.recordOK(ctx, "chat.confirm", res.Path, res.Outcome.String())
	return res, nil
}

// Decline discards a pending draft without touching any note.
func (ss *Session) Decline(ctx context.Context, id string) error {
	s := ss.svc
	ss.mu.Lock()
	d, ok := ss.drafts[id]
	if !ok {
		ss.mu.Unlock()
		return ErrDraftNotFound
	}
	if d.Status != DraftPending {
		ss.mu.Unlock()
		return ErrDraftClosed
	}
	d.Status = DraftDeclined
	name := d.Name
	ss.mu.Unlock()

	s.resolveDraft(ctx, id, DraftDeclined, "")
	s.recordOK(ctx, "chat.decline", name, "draft "+id)
	return nil
}

// History returns a copy of every turn so far, oldest first.
func (ss *Session) History() []chat.Message {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.history.Turns()
}

// Draft returns a copy of the draft with id.
func (ss *Session) Draft(id string) (Draft, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	d, ok := ss.drafts[id]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// Drafts returns copies of every draft in the order they were proposed.
func (ss *Session) Drafts() []Draft {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]Draft, 0, len(ss.order))
	for _, id := range ss.order {
		out = append(out, *ss.drafts[id])
	}
	return out
}

// LatestPending returns the most recently proposed draft that is still pending.
func (ss *Session) LatestPending() (Draft, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	for i := len(ss.order) - 1; i >= 0; i-- {
		if d := ss.drafts[ss.order[i]]; d.Status == DraftPending {
			return *d, true
		}
	}
	return Draft{}, false
}

func (s *Service) journalDraft(ctx context.Context, d Draft) {
	if s.journal == nil {
		return
	}
	err := s.journal.RecordDraft(context.WithoutCancel(ctx), storage.DraftRecord{
		ID:        d.ID,
		Name:      d.Name,
		Body:      d.Body,
		Status:    string(d.Status),
		CreatedAt: d.CreatedAt,
	})
	if err != nil {
		s.logger.Warn("journal draft", zap.String("draft", d.ID), zap.Error(err))
	}
}

func (s *Service) resolveDraft(ctx context.Context, id string, status DraftStatus, path string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.ResolveDraft(context.WithoutCancel(ctx), id, string(status), path); err != nil {
		s.logger.Warn("journal draft status", zap.String("draft", id), zap.Error(err))
	}
}
