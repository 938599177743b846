// Package repl is the line-mode chat used when no terminal UI is available.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"noteassist/internal/assistant"
	"noteassist/internal/i18n"
	"noteassist/internal/tui"
)

// Config 行模式循环的依赖
type Config struct {
	Session tui.ChatSession
	Input   LineInput
	Out     io.Writer
	Notice  *Notifier
	Locale  *i18n.I18n
	Model   string
}

// Loop holds line-mode state: the session, prompt info and I/O.
// Loop 持有行模式状态：会话、提示符信息与输入输出。
type Loop struct {
	session tui.ChatSession
	input   LineInput
	out     io.Writer
	notice  *Notifier
	tr      *i18n.I18n
	model   string

	// prompt state, refreshed after each reply
	tokens int
	dim    *color.Color
}

func NewLoop(cfg Config) *Loop {
	tr := cfg.Locale
	if tr == nil {
		tr = i18n.New("")
	}
	notice := cfg.Notice
	if notice == nil {
		notice = NewNotifier(cfg.Out, tr)
	}
	return &Loop{
		session: cfg.Session,
		input:   cfg.Input,
		out:     cfg.Out,
		notice:  notice,
		tr:      tr,
		model:   cfg.Model,
		dim:     color.New(color.Faint),
	}
}

// Run reads messages until EOF or /exit. Each reply is printed; an improvement
// draft is followed by a y/N prompt that applies or discards it.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.printStatus()
		line, err := l.input.ReadLine("> ")
		if err != nil {
			switch {
			case errors.Is(err, readline.ErrInterrupt):
				fmt.Fprintln(l.out)
				continue
			case errors.Is(err, io.EOF):
				return nil
			default:
				return fmt.Errorf("read input: %w", err)
			}
		}
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		if text == "/exit" || text == "/quit" {
			return nil
		}

		reply, err := l.session.Send(ctx, text)
		if reply.Raw == "" && err != nil {
			l.notice.Error(assistant.Describe(l.tr, "chat", err))
			continue
		}
		l.tokens = reply.Context.Tokens
		fmt.Fprintf(l.out, "%s:\n%s\n\n", l.tr.T("chat.assistant"), tui.FormatReply(l.tr, reply, err))
		if reply.Draft != nil {
			if err := l.promptDraft(ctx, *reply.Draft); err != nil {
				return err
			}
		}
	}
}

// printStatus 提示符第一行：token 估算与模型
func (l *Loop) printStatus() {
	if l.tokens <= 0 {
		return
	}
	l.dim.Fprintf(l.out, "%s · %s\n", l.tr.T("status.tokens", l.tokens), l.model)
}

func (l *Loop) promptDraft(ctx context.Context, d assistant.Draft) error {
	answer, err := l.input.ReadLine(l.tr.T("draft.prompt", d.Name))
	if err != nil && !errors.Is(err, readline.ErrInterrupt) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read input: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "是":
		res, err := l.session.Confirm(ctx, d.ID)
		if err != nil {
			l.notice.Error(assistant.Describe(l.tr, "chat", err))
			return nil
		}
		l.notice.T("draft.applied", res.Path)
	default:
		if err := l.session.Decline(ctx, d.ID); err != nil {
			l.notice.Error(assistant.Describe(l.tr, "chat", err))
			return nil
		}
		l.notice.T("draft.declined")
	}
	return nil
}
