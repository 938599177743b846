// Package assistant orchestrates the note commands and the chat session.
package assistant

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"noteassist/internal/chat"
	"noteassist/internal/config"
	"noteassist/internal/contextmgr"
	"noteassist/internal/extract"
	"noteassist/internal/notes"
	"noteassist/internal/provider"
	"noteassist/internal/storage"
	"noteassist/internal/vault"
)

var (
	ErrMissingCredential = errors.New("api key is not configured")
	ErrEmptyNote         = errors.New("note is empty")
	ErrNoSuggestions     = errors.New("no suggestions")
	ErrNoActiveNote      = errors.New("no active note")
	ErrEmptyTranscript   = errors.New("transcription returned no text")
)

// Options 构建 Service 所需的依赖
// Options carries the collaborators of a Service. Journal and Tokenizer are optional.
type Options struct {
	Settings     config.Settings
	UtilityModel string
	Provider     provider.Provider
	Store        vault.Store
	Writer       *notes.Writer
	Gatherer     *contextmgr.Gatherer
	Journal      storage.Journal
	Tokenizer    *contextmgr.Tokenizer
	Logger       *zap.Logger
	Now          func() time.Time
}

type Service struct {
	settings     config.Settings
	utilityModel string
	provider     provider.Provider
	store        vault.Store
	writer       *notes.Writer
	gatherer     *contextmgr.Gatherer
	journal      storage.Journal
	tokenizer    *contextmgr.Tokenizer
	logger       *zap.Logger
	now          func() time.Time
}

func New(opts Options) *Service {
	s := &Service{
		settings:     opts.Settings,
		utilityModel: strings.TrimSpace(opts.UtilityModel),
		provider:     opts.Provider,
		store:        opts.Store,
		writer:       opts.Writer,
		gatherer:     opts.Gatherer,
		journal:      opts.Journal,
		tokenizer:    opts.Tokenizer,
		logger:       opts.Logger,
		now:          opts.Now,
	}
	if s.utilityModel == "" {
		s.utilityModel = config.DefaultUtilityModel
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.writer == nil {
		s.writer = notes.NewWriter(s.store, s.settings.DailyNotesFolder, s.logger)
	}
	if s.gatherer == nil {
		s.gatherer = contextmgr.NewGatherer(s.store, s.logger).WithTokenizer(s.tokenizer)
	}
	return s
}

func (s *Service) Settings() config.Settings {
	return s.settings
}

// RequireCredential fails with ErrMissingCredential when no API key is set.
func (s *Service) RequireCredential() error {
	if strings.TrimSpace(s.settings.APIKey) == "" {
		return ErrMissingCredential
	}
	return nil
}

// TagResult 标签命令的结果
type TagResult struct {
	Tags []string
	Path string
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// TagNote asks the utility model for 3-5 tags and appends them to doc: on the
// first line that already contains '#', otherwise as a trailing "Tags:" line.
func (s *Service) TagNote(ctx context.Context, doc vault.Document) (TagResult, error) {
	res, err := s.tagNote(ctx, doc)
	if err != nil {
		s.record(ctx, "tag", doc.Path, err)
		return TagResult{}, err
	}
	s.recordOK(ctx, "tag", res.Path, strings.Join(res.Tags, ", "))
	return res, nil
}

func (s *Service) tagNote(ctx context.Context, doc vault.Document) (TagResult, error) {
	if err := s.RequireCredential(); err != nil {
		return TagResult{}, err
	}
	content, err := s.readNonEmpty(ctx, doc)
	if err != nil {
		return TagResult{}, err
	}
	reply, err := s.complete(ctx, tagPrompt(content), tagMaxTokens)
	if err != nil {
		return TagResult{}, err
	}

	var tags []string
	for _, raw := range strings.Split(reply, ",") {
		tag := strings.ToLower(strings.TrimSpace(raw))
		tag = strings.TrimLeft(tag, "#")
		if tag == "" {
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) == 0 {
		return TagResult{}, ErrNoSuggestions
	}

	marks := make([]string, 0, len(tags))
	for _, tag := range tags {
		marks = append(marks, "#"+whitespaceRun.ReplaceAllString(tag, "-"))
	}
	tagString := strings.Join(marks, " ")

	lines := strings.Split(content, "\n")
	placed := false
	for i, line := range lines {
		if strings.Contains(line, "#") {
			lines[i] = line + " " + tagString
			placed = true
			break
		}
	}
	if !placed {
		lines = append(lines, "", "Tags: "+tagString)
	}
	if err := s.store.Modify(ctx, doc.Path, strings.Join(lines, "\n")); err != nil {
		return TagResult{}, &notes.WriteError{Op: "update", Path: doc.Path, Err: err}
	}
	return TagResult{Tags: tags, Path: doc.Path}, nil
}

// CalendarResult 日程提取结果；没有命中时 Items 为空且不写入任何笔记
// CalendarResult holds the extracted items. With no items nothing is written.
type CalendarResult struct {
	Items []extract.Item
	Write notes.Result
}

// ExtractCalendar writes every date and time mention in doc to the
// "Calendar Items" note. It makes no remote calls.
func (s *Service) ExtractCalendar(ctx context.Context, doc vault.Document) (CalendarResult, error) {
	content, err := s.readNonEmpty(ctx, doc)
	if err != nil {
		s.record(ctx, "calendar", doc.Path, err)
		return CalendarResult{}, err
	}
	items := extract.Calendar(content)
	if len(items) == 0 {
		s.recordOK(ctx, "calendar", doc.Path, "no items")
		return CalendarResult{}, nil
	}
	summary := extract.Summary(doc.Name, items, s.now())
	res, err := s.writer.Upsert(ctx, "Calendar Items", summary)
	if err != nil {
		s.record(ctx, "calendar", doc.Path, err)
		return CalendarResult{Items: items}, err
	}
	s.recordOK(ctx, "calendar", res.Path, fmt.Sprintf("%d items", len(items)))
	return CalendarResult{Items: items, Write: res}, nil
}

// GenerateTasks extracts actionable tasks from doc into "Daily Tasks <date>".
func (s *Service) GenerateTasks(ctx context.Context, doc vault.Document) (notes.Result, error) {
	res, err := s.generateTasks(ctx, doc)
	if err != nil {
		s.record(ctx, "tasks", doc.Path, err)
		return notes.Result{}, err
	}
	s.recordOK(ctx, "tasks", res.Path, res.Outcome.String())
	return res, nil
}

func (s *Service) generateTasks(ctx context.Context, doc vault.Document) (notes.Result, error) {
	if err := s.RequireCredential(); err != nil {
		return notes.Result{}, err
	}
	content, err := s.readNonEmpty(ctx, doc)
	if err != nil {
		return notes.Result{}, err
	}
	reply, err := s.complete(ctx, tasksPrompt(content), tasksMaxTokens)
	if err != nil {
		return notes.Result{}, err
	}
	tasks := strings.TrimSpace(reply)
	if tasks == "" {
		return notes.Result{}, ErrNoSuggestions
	}
	today := s.now().Format("2006-01-02")
	body := fmt.Sprintf("# Daily Tasks - %s\n\n%s\n\nGenerated from: [[%s]]", today, tasks, doc.Name)
	return s.writer.Upsert(ctx, "Daily Tasks "+today, body)
}

// SuggestBacklinks asks which existing notes doc should link to and appends
// a "Related Notes" section with the names that exactly match a note.
func (s *Service) SuggestBacklinks(ctx context.Context, doc vault.Document) ([]string, error) {
	links, err := s.suggestBacklinks(ctx, doc)
	if err != nil {
		s.record(ctx, "backlinks", doc.Path, err)
		return nil, err
	}
	s.recordOK(ctx, "backlinks", doc.Path, strings.Join(links, ", "))
	return links, nil
}

func (s *Service) suggestBacklinks(ctx context.Context, doc vault.Document) ([]string, error) {
	if err := s.RequireCredential(); err != nil {
		return nil, err
	}
	content, err := s.readNonEmpty(ctx, doc)
	if err != nil {
		return nil, err
	}
	docs, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	names := make([]string, 0, len(docs))
	known := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		names = append(names, d.Basename)
		known[d.Basename] = struct{}{}
	}

	reply, err := s.complete(ctx, backlinksPrompt(content, names), backlinksMaxTokens)
	if err != nil {
		return nil, err
	}
	var links []string
	for _, raw := range strings.Split(reply, ",") {
		name := strings.TrimSpace(raw)
		if _, ok := known[name]; ok {
			links = append(links, name)
		}
	}
	if len(links) == 0 {
		return nil, ErrNoSuggestions
	}

	marks := make([]string, 0, len(links))
	for _, name := range links {
		marks = append(marks, "[["+name+"]]")
	}
	updated := content + "\n\n## Related Notes\n" + strings.Join(marks, " ")
	if err := s.store.Modify(ctx, doc.Path, updated); err != nil {
		return nil, &notes.WriteError{Op: "update", Path: doc.Path, Err: err}
	}
	return links, nil
}

// FollowUp 听写完成后自动执行的命令结果
// FollowUp is the outcome of one automatic command run after dictation.
type FollowUp struct {
	Action string
	Detail string
	Err    error
}

type DictateResult struct {
	Path      string
	FollowUps []FollowUp
}

// Dictate inserts transcribed text at the editor cursor, then runs the
// automatic commands enabled in settings: tagging, calendar extraction and
// task generation, in that order. A failing follow-up does not undo the insert.
func (s *Service) Dictate(ctx context.Context, editor vault.Editor, text string) (DictateResult, error) {
	doc := editor.Document()
	if strings.TrimSpace(text) == "" {
		s.record(ctx, "dictate", doc.Path, ErrEmptyTranscript)
		return DictateResult{}, ErrEmptyTranscript
	}
	if err := editor.InsertAtCursor(ctx, text); err != nil {
		werr := &notes.WriteError{Op: "update", Path: doc.Path, Err: err}
		s.record(ctx, "dictate", doc.Path, werr)
		return DictateResult{}, werr
	}
	s.recordOK(ctx, "dictate", doc.Path, fmt.Sprintf("%d chars", len([]rune(text))))

	out := DictateResult{Path: doc.Path}
	if s.settings.AutoTagEnabled {
		res, err := s.TagNote(ctx, doc)
		out.FollowUps = append(out.FollowUps, FollowUp{Action: "tag", Detail: strings.Join(res.Tags, ", "), Err: err})
	}
	if s.settings.AutoCalendarEnabled {
		res, err := s.ExtractCalendar(ctx, doc)
		out.FollowUps = append(out.FollowUps, FollowUp{Action: "calendar", Detail: fmt.Sprint(len(res.Items)), Err: err})
	}
	if s.settings.AutoTaskEnabled {
		res, err := s.GenerateTasks(ctx, doc)
		out.FollowUps = append(out.FollowUps, FollowUp{Action: "tasks", Detail: res.Path, Err: err})
	}
	return out, nil
}

// Transcriber adapts the provider to dictation.Transcriber.
func (s *Service) Transcriber() *Transcriber {
	return &Transcriber{p: s.provider}
}

type Transcriber struct {
	p provider.Provider
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return t.p.Transcribe(ctx, bytes.NewReader(audio), "recording.wav")
}

// EstimateTokens returns the approximate prompt size of messages, or 0 without a tokenizer.
func (s *Service) EstimateTokens(messages []chat.Message) int {
	if s.tokenizer == nil {
		return 0
	}
	return s.tokenizer.Count(messages)
}

func (s *Service) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	resp, err := s.provider.Chat(ctx, provider.ChatRequest{
		Model:     s.utilityModel,
		Messages:  []chat.Message{{Role: chat.RoleUser, Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (s *Service) readNonEmpty(ctx context.Context, doc vault.Document) (string, error) {
	content, err := s.store.Read(ctx, doc.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", doc.Path, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyNote
	}
	return content, nil
}

func (s *Service) recordOK(ctx context.Context, action, target, detail string) {
	s.logger.Info(action, zap.String("target", target), zap.String("detail", detail))
	s.journalActivity(ctx, storage.Activity{Action: action, Status: storage.StatusOK, Target: target, Detail: detail})
}

func (s *Service) record(ctx context.Context, action, target string, err error) {
	s.logger.Warn(action+" failed", zap.String("target", target), zap.Error(err))
	s.journalActivity(ctx, storage.Activity{Action: action, Status: storage.StatusFailed, Target: target, Detail: err.Error()})
}

func (s *Service) journalActivity(ctx context.Context, a storage.Activity) {
	if s.journal == nil {
		return
	}
	a.CreatedAt = s.now()
	if err := s.journal.RecordActivity(context.WithoutCancel(ctx), a); err != nil {
		s.logger.Warn("journal activity", zap.Error(err))
	}
}
