package repl

import (
	"io"

	"github.com/fatih/color"

	"noteassist/internal/i18n"
)

// Notifier 在终端输出一行彩色提示
// Notifier prints one-line coloured notices, the terminal counterpart of toast messages.
type Notifier struct {
	out  io.Writer
	tr   *i18n.I18n
	info *color.Color
	warn *color.Color
	bad  *color.Color
}

func NewNotifier(out io.Writer, tr *i18n.I18n) *Notifier {
	return &Notifier{
		out:  out,
		tr:   tr,
		info: color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		bad:  color.New(color.FgRed, color.Bold),
	}
}

func (n *Notifier) Info(msg string) {
	n.info.Fprintln(n.out, msg)
}

func (n *Notifier) Warn(msg string) {
	n.warn.Fprintln(n.out, msg)
}

func (n *Notifier) Error(msg string) {
	n.bad.Fprintln(n.out, msg)
}

// T prints the catalog message key as an info notice.
func (n *Notifier) T(key string, args ...any) {
	n.Info(n.tr.T(key, args...))
}
