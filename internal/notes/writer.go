// Package notes resolves a note title to a document and writes content to it.
package notes

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"noteassist/internal/vault"
)

type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome Outcome
	Path    string
}

// WriteError 写入文档失败
// WriteError reports a failed store operation for a resolved or target path.
type WriteError struct {
	Op   string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s note: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s note %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

var errEmptyTitle = errors.New("note title is empty")

type Writer struct {
	store  vault.Store
	folder string
	logger *zap.Logger
}

// NewWriter 创建 Writer；folder 为空时新笔记写在 vault 根目录
// NewWriter returns a Writer that creates unresolved notes under folder, or at the vault root when folder is empty.
func NewWriter(store vault.Store, folder string, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{
		store:  store,
		folder: strings.Trim(strings.TrimSpace(folder), "/"),
		logger: logger,
	}
}

// Normalize returns the basename and canonical filename for title.
func Normalize(title string) (base, filename string) {
	base = strings.TrimSpace(title)
	if len(base) >= 3 && strings.EqualFold(base[len(base)-3:], ".md") {
		base = base[:len(base)-3]
	}
	return base, base + ".md"
}

// Upsert overwrites the document title resolves to, or creates it in the
// configured folder. Resolution prefers the active document, then a basename
// match, then a filename match, all case-insensitive.
func (w *Writer) Upsert(ctx context.Context, title, content string) (Result, error) {
	base, filename := Normalize(title)
	if strings.TrimSpace(base) == "" {
		return Result{}, &WriteError{Op: "resolve", Err: errEmptyTitle}
	}

	doc, ok, err := w.Resolve(ctx, title)
	if err != nil {
		return Result{}, &WriteError{Op: "resolve", Err: err}
	}
	if ok {
		if err := w.store.Modify(ctx, doc.Path, content); err != nil {
			w.logger.Warn("update note failed", zap.String("path", doc.Path), zap.Error(err))
			return Result{}, &WriteError{Op: "update", Path: doc.Path, Err: err}
		}
		w.logger.Info("note updated", zap.String("title", title), zap.String("path", doc.Path))
		return Result{Outcome: Updated, Path: doc.Path}, nil
	}

	target := filename
	if w.folder != "" {
		target = path.Join(w.folder, filename)
	}
	created, err := w.store.Create(ctx, target, content)
	if err != nil {
		w.logger.Warn("create note failed", zap.String("path", target), zap.Error(err))
		return Result{}, &WriteError{Op: "create", Path: target, Err: err}
	}
	w.logger.Info("note created", zap.String("title", title), zap.String("path", created.Path))
	return Result{Outcome: Created, Path: created.Path}, nil
}

// Resolve finds the existing document title refers to without writing anything.
func (w *Writer) Resolve(ctx context.Context, title string) (vault.Document, bool, error) {
	base, filename := Normalize(title)

	if active, ok := w.store.Active(); ok {
		if strings.EqualFold(active.Basename, base) || strings.EqualFold(active.Name, filename) {
			return active, true, nil
		}
	}

	docs, err := w.store.List(ctx)
	if err != nil {
		return vault.Document{}, false, err
	}
	for _, d := range docs {
		if strings.EqualFold(d.Basename, base) {
			return d, true, nil
		}
	}
	for _, d := range docs {
		if strings.EqualFold(d.Name, filename) {
			return d, true, nil
		}
	}
	return vault.Document{}, false, nil
}
