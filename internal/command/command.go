// Package command recognises the structured commands an assistant reply may carry.
package command

import (
	"regexp"
	"strings"
)

type Kind int

const (
	Plain Kind = iota
	CreateNote
	ImproveNote
	// Diagnostic 回复声明了 CREATE_NOTE 但格式无法识别
	// Diagnostic means the reply announced CREATE_NOTE but could not be parsed.
	Diagnostic
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case CreateNote:
		return "create_note"
	case ImproveNote:
		return "improve_note"
	case Diagnostic:
		return "diagnostic"
	default:
		return "unknown"
	}
}

const (
	createToken  = "CREATE_NOTE:"
	improveToken = "IMPROVE_NOTE:"
)

var createPattern = regexp.MustCompile(`(?i)CREATE_NOTE:\s*([\w\- ./]+)\n([\s\S]*)`)

// Result is the interpreted form of one reply. Text always holds the raw reply.
type Result struct {
	Kind Kind
	Text string
	Name string
	Body string
}

// ParseError carries a reply that announced a command the interpreter could not parse.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "unrecognised CREATE_NOTE reply"
}

// Err returns a *ParseError for Diagnostic results and nil otherwise.
func (r Result) Err() error {
	if r.Kind != Diagnostic {
		return nil
	}
	return &ParseError{Raw: r.Text}
}

// Interpret classifies reply. It never fails: anything that is not a
// well-formed command is Plain, except a CREATE_NOTE announcement that does
// not match the expected shape, which is Diagnostic.
func Interpret(reply string) Result {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(reply)), createToken) {
		m := createPattern.FindStringSubmatch(reply)
		if m == nil {
			return Result{Kind: Diagnostic, Text: reply}
		}
		return Result{
			Kind: CreateNote,
			Text: reply,
			Name: strings.TrimSpace(m[1]),
			Body: strings.TrimSpace(m[2]),
		}
	}

	if strings.HasPrefix(reply, improveToken) {
		first, rest, _ := strings.Cut(reply, "\n")
		// 名称不做校验，空白名称会在写入时失败
		// Names are not validated here; a blank name fails later at write time.
		if remainder := strings.TrimPrefix(first, improveToken); remainder != "" {
			return Result{Kind: ImproveNote, Text: reply, Name: strings.TrimSpace(remainder), Body: rest}
		}
	}

	return Result{Kind: Plain, Text: reply}
}
