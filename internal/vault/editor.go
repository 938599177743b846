package vault

import (
	"context"
	"unicode/utf8"
)

// Editor is the editing surface of the active document.
type Editor interface {
	Document() Document
	Content(ctx context.Context) (string, error)
	InsertAtCursor(ctx context.Context, text string) error
}

// FileEditor edits one document through a Store. Cursor is a byte offset; a
// negative cursor means the end of the document.
type FileEditor struct {
	store  Store
	doc    Document
	cursor int
}

func NewFileEditor(store Store, doc Document, cursor int) *FileEditor {
	return &FileEditor{store: store, doc: doc, cursor: cursor}
}

func (e *FileEditor) Document() Document {
	return e.doc
}

func (e *FileEditor) Content(ctx context.Context) (string, error) {
	return e.store.Read(ctx, e.doc.Path)
}

// InsertAtCursor inserts text at the cursor and moves the cursor past it.
func (e *FileEditor) InsertAtCursor(ctx context.Context, text string) error {
	content, err := e.store.Read(ctx, e.doc.Path)
	if err != nil {
		return err
	}
	at := clampOffset(content, e.cursor)
	updated := content[:at] + text + content[at:]
	if err := e.store.Modify(ctx, e.doc.Path, updated); err != nil {
		return err
	}
	e.cursor = at + len(text)
	return nil
}

func clampOffset(s string, off int) int {
	if off < 0 || off > len(s) {
		return len(s)
	}
	for off > 0 && !utf8.RuneStart(s[off]) {
		off--
	}
	return off
}
