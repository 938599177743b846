// Package tui is the Bubble Tea chat panel.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"noteassist/internal/assistant"
	"noteassist/internal/i18n"
	"noteassist/internal/notes"
)

// ChatSession 聊天面板依赖的会话接口
// ChatSession is the part of *assistant.Session the panel drives.
type ChatSession interface {
	Send(ctx context.Context, message string) (assistant.Reply, error)
	Confirm(ctx context.Context, id string) (notes.Result, error)
	Decline(ctx context.Context, id string) error
	LatestPending() (assistant.Draft, bool)
	Drafts() []assistant.Draft
}

// --- Tea Messages ---

// ReplyMsg 一次对话完成
// ReplyMsg carries the outcome of one Send
type ReplyMsg struct {
	Reply assistant.Reply
	Err   error
}

// DraftMsg 草稿确认或丢弃完成
// DraftMsg carries the outcome of applying or discarding a draft
type DraftMsg struct {
	Draft    assistant.Draft
	Declined bool
	Result   notes.Result
	Err      error
}

// Config 创建聊天面板的参数
type Config struct {
	Session ChatSession
	Locale  *i18n.I18n
	Vault   string
	Notes   int
	Model   string
}

type role int

const (
	roleUser role = iota
	roleAssistant
	roleNotice
)

type entry struct {
	role role
	text string
}

// App Bubble Tea 主 Model
// App is the chat panel model
type App struct {
	// 布局 / Layout
	width    int
	height   int
	chatView viewport.Model
	input    textarea.Model

	// 会话 / Session
	ctx     context.Context
	session ChatSession
	vault   string
	notes   int
	model   string

	// 状态 / State
	entries   []entry
	loading   bool
	cancel    context.CancelFunc
	quitArmed bool
	tokens    int
	lastError string

	// 配置 / Config
	theme  Theme
	keys   KeyMap
	locale *i18n.I18n
}

// NewApp 创建聊天面板
// NewApp creates the chat panel
func NewApp(ctx context.Context, cfg Config) App {
	locale := cfg.Locale
	if locale == nil {
		locale = i18n.New("")
	}

	ta := textarea.New()
	ta.Placeholder = locale.T("input.placeholder")
	ta.CharLimit = 8192
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.Focus()

	a := App{
		chatView: viewport.New(80, 10),
		input:    ta,
		ctx:      ctx,
		session:  cfg.Session,
		vault:    cfg.Vault,
		notes:    cfg.Notes,
		model:    cfg.Model,
		theme:    DarkTheme(),
		keys:     DefaultKeyMap(),
		locale:   locale,
	}
	a.entries = append(a.entries, entry{role: roleNotice, text: locale.T("chat.welcome", cfg.Notes, cfg.Vault)})
	return a
}

func (a App) Init() tea.Cmd {
	return textarea.Blink
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			return a.quit()
		case key.Matches(msg, a.keys.Cancel):
			return a.cancelRequest()
		case key.Matches(msg, a.keys.Submit):
			return a.submit()
		case key.Matches(msg, a.keys.ApplyDraft):
			return a.resolveDraft(false)
		case key.Matches(msg, a.keys.DropDraft):
			return a.resolveDraft(true)
		case key.Matches(msg, a.keys.PageUp), key.Matches(msg, a.keys.PageDown):
			var cmd tea.Cmd
			a.chatView, cmd = a.chatView.Update(msg)
			return a, cmd
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.relayout()
		return a, nil

	case ReplyMsg:
		a.loading = false
		a.cancel = nil
		a.lastError = ""
		if errors.Is(msg.Err, context.Canceled) {
			return a, nil
		}
		if msg.Err != nil {
			a.lastError = assistant.Describe(a.locale, "chat", msg.Err)
		}
		if msg.Reply.Raw != "" {
			a.tokens = msg.Reply.Context.Tokens
		}
		if text := FormatReply(a.locale, msg.Reply, msg.Err); text != "" {
			a.appendEntry(roleAssistant, text)
		}
		if d := msg.Reply.Draft; d != nil {
			n := a.draftNumber(d.ID)
			a.appendEntry(roleNotice, a.locale.T("draft.title", n, d.Name)+" · "+a.locale.T("keys.draft", n, n))
		}
		return a, nil

	case DraftMsg:
		a.loading = false
		switch {
		case msg.Err != nil:
			a.lastError = assistant.Describe(a.locale, "chat", msg.Err)
			a.appendEntry(roleNotice, a.lastError)
		case msg.Declined:
			a.appendEntry(roleNotice, a.locale.T("draft.declined"))
		default:
			a.lastError = ""
			a.appendEntry(roleNotice, a.locale.T("draft.applied", msg.Result.Path))
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a App) View() string {
	if a.width == 0 || a.height == 0 {
		return "Initializing..."
	}

	title := a.theme.TitleStyle.Render(" " + a.locale.T("panel.chat"))
	inputBox := a.theme.InputStyle.Width(a.width).Render(a.input.View())
	help := a.theme.MutedStyle.Render(" " + a.locale.T("keys.help"))
	if a.lastError != "" {
		help = a.theme.ErrorStyle.Render(" " + a.lastError)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		a.chatView.View(),
		inputBox,
		help,
		a.renderStatusBar(a.width),
	)
}

// --- 内部方法 / Internal methods ---

func (a App) submit() (tea.Model, tea.Cmd) {
	// 等待回复时禁止再次发送 / Sending is disabled while a reply is pending
	if a.loading {
		return a, nil
	}
	text := strings.TrimSpace(a.input.Value())
	if text == "" {
		return a, nil
	}
	if text == "/exit" {
		return a, tea.Quit
	}
	a.quitArmed = false
	if cmd, arg, ok := draftCommand(text); ok {
		a.input.Reset()
		return a.resolveNumbered(arg, cmd == "/discard")
	}
	a.input.Reset()
	a.appendEntry(roleUser, text)
	a.loading = true
	a.lastError = ""

	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel
	session := a.session
	return a, func() tea.Msg {
		defer cancel()
		reply, err := session.Send(ctx, text)
		return ReplyMsg{Reply: reply, Err: err}
	}
}

// quit 有待确认草稿时需要连按两次 ctrl+c
// quit asks for a second ctrl+c while drafts are still pending.
func (a App) quit() (tea.Model, tea.Cmd) {
	pending := 0
	for _, d := range a.session.Drafts() {
		if d.Status == assistant.DraftPending {
			pending++
		}
	}
	if pending == 0 || a.quitArmed {
		if a.cancel != nil {
			a.cancel()
		}
		return a, tea.Quit
	}
	a.quitArmed = true
	a.appendEntry(roleNotice, a.locale.T("quit.pending", pending))
	return a, nil
}

func (a App) cancelRequest() (tea.Model, tea.Cmd) {
	if !a.loading || a.cancel == nil {
		return a, nil
	}
	a.cancel()
	a.cancel = nil
	a.appendEntry(roleNotice, a.locale.T("status.cancelled"))
	return a, nil
}

// draftCommand recognises "/apply N" and "/discard N".
func draftCommand(text string) (cmd, arg string, ok bool) {
	fields := strings.Fields(text)
	if len(fields) != 2 || (fields[0] != "/apply" && fields[0] != "/discard") {
		return "", "", false
	}
	return fields[0], fields[1], true
}

// draftNumber is the 1-based position of a draft in proposal order, as shown in the transcript.
func (a App) draftNumber(id string) int {
	for i, d := range a.session.Drafts() {
		if d.ID == id {
			return i + 1
		}
	}
	return 0
}

func (a App) resolveNumbered(arg string, decline bool) (tea.Model, tea.Cmd) {
	if a.loading {
		return a, nil
	}
	drafts := a.session.Drafts()
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(drafts) {
		a.appendEntry(roleNotice, a.locale.T("draft.unknown", arg))
		return a, nil
	}
	return a.startResolve(drafts[n-1], decline)
}

func (a App) resolveDraft(decline bool) (tea.Model, tea.Cmd) {
	if a.loading {
		return a, nil
	}
	d, ok := a.session.LatestPending()
	if !ok {
		a.appendEntry(roleNotice, a.locale.T("draft.missing"))
		return a, nil
	}
	return a.startResolve(d, decline)
}

func (a App) startResolve(d assistant.Draft, decline bool) (tea.Model, tea.Cmd) {
	a.loading = true

	ctx, session := a.ctx, a.session
	return a, func() tea.Msg {
		if decline {
			return DraftMsg{Draft: d, Declined: true, Err: session.Decline(ctx, d.ID)}
		}
		res, err := session.Confirm(ctx, d.ID)
		return DraftMsg{Draft: d, Result: res, Err: err}
	}
}

func (a *App) relayout() {
	chatHeight := a.height - 7
	if chatHeight < 3 {
		chatHeight = 3
	}
	a.chatView = viewport.New(a.width, chatHeight)
	a.input.SetWidth(a.width - 2)
	a.refresh()
}

func (a *App) appendEntry(r role, text string) {
	a.entries = append(a.entries, entry{role: r, text: text})
	a.refresh()
}

func (a *App) refresh() {
	a.chatView.SetContent(a.renderTranscript(a.chatView.Width))
	a.chatView.GotoBottom()
}

// --- 渲染方法 / Render methods ---

func (a App) renderTranscript(width int) string {
	var b strings.Builder
	for _, e := range a.entries {
		switch e.role {
		case roleUser:
			b.WriteString(a.theme.UserStyle.Render(a.locale.T("chat.you")) + "\n")
			b.WriteString(e.text + "\n\n")
		case roleAssistant:
			b.WriteString(a.theme.AssistantStyle.Render(a.locale.T("chat.assistant")) + "\n")
			if rendered := RenderMarkdown(e.text, width-2); rendered != "" {
				b.WriteString(rendered + "\n\n")
			}
		default:
			b.WriteString(a.theme.MutedStyle.Render(e.text) + "\n\n")
		}
	}
	if a.loading {
		b.WriteString(a.theme.MutedStyle.Render(a.locale.T("status.thinking")))
	}
	return b.String()
}

func (a App) renderStatusBar(width int) string {
	status := a.locale.T("status.ready")
	if a.loading {
		status = a.locale.T("status.thinking")
	}

	left := fmt.Sprintf(" %s · %s", a.model, status)
	if a.tokens > 0 {
		left += " · " + a.locale.T("status.tokens", a.tokens)
	}

	room := width - lipgloss.Width(left) - 2
	right := ""
	if room > 0 {
		right = runewidth.Truncate(a.vault, room, "…") + "  "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return a.theme.StatusBarStyle.Width(width).Render(bar)
}

// Run 启动 Bubble Tea TUI
// Run starts the chat panel and blocks until the user quits
func Run(ctx context.Context, cfg Config) error {
	p := tea.NewProgram(NewApp(ctx, cfg), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
