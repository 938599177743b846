// Package vault exposes a directory of Markdown notes as a document store.
package vault

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ErrExists 目标路径（大小写不敏感）已被占用
// ErrExists reports that a document already occupies the target path, compared case-insensitively.
var ErrExists = errors.New("document already exists")

var ErrNotFound = errors.New("document not found")

const noteExt = ".md"

// Document 是 vault 中的一篇笔记
// Document describes one note. Path is vault-relative and slash separated.
type Document struct {
	Path     string
	Name     string
	Basename string
	ModTime  time.Time
	Size     int64
}

// Store is the document store the assistant reads from and writes to.
type Store interface {
	List(ctx context.Context) ([]Document, error)
	Read(ctx context.Context, path string) (string, error)
	Create(ctx context.Context, path, content string) (Document, error)
	Modify(ctx context.Context, path, content string) error
	// Active returns the document currently open in the editor, if any.
	Active() (Document, bool)
}

type FS struct {
	g *guard

	mu     sync.RWMutex
	active string
}

func Open(root string) (*FS, error) {
	g, err := newGuard(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(g.root)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", g.root)
	}
	return &FS{g: g}, nil
}

func (s *FS) Root() string {
	return s.g.root
}

// SetActive marks path as the open document. An empty path clears it.
func (s *FS) SetActive(p string) error {
	p = CleanPath(p)
	if p == "" {
		s.mu.Lock()
		s.active = ""
		s.mu.Unlock()
		return nil
	}
	if _, err := s.stat(p); err != nil {
		return err
	}
	s.mu.Lock()
	s.active = p
	s.mu.Unlock()
	return nil
}

func (s *FS) Active() (Document, bool) {
	s.mu.RLock()
	p := s.active
	s.mu.RUnlock()
	if p == "" {
		return Document{}, false
	}
	doc, err := s.stat(p)
	if err != nil {
		return Document{}, false
	}
	return doc, true
}

// List 按字典序遍历 vault，跳过隐藏目录与非 .md 文件
// List walks the vault in lexical order, skipping hidden entries and non-Markdown files.
func (s *FS) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(s.g.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == s.g.root {
				return err
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == s.g.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(d.Name()), noteExt) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(s.g.root, p)
		if err != nil {
			return nil
		}
		docs = append(docs, newDocument(filepath.ToSlash(rel), info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list vault: %w", err)
	}
	return docs, nil
}

func (s *FS) Read(ctx context.Context, p string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := s.g.resolve(p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// Create writes a new document, creating parent folders. It fails with ErrExists
// when any document already sits at p under a case-insensitive comparison.
func (s *FS) Create(ctx context.Context, p, content string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	p = CleanPath(p)
	abs, err := s.g.resolve(p)
	if err != nil {
		return Document{}, err
	}
	taken, err := s.occupied(ctx, p)
	if err != nil {
		return Document{}, err
	}
	if taken != "" {
		return Document{}, fmt.Errorf("%w: %s", ErrExists, taken)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return Document{}, fmt.Errorf("create folder for %s: %w", p, err)
	}
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrExists, p)
		}
		return Document{}, fmt.Errorf("create %s: %w", p, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return Document{}, fmt.Errorf("write %s: %w", p, err)
	}
	if err := f.Close(); err != nil {
		return Document{}, fmt.Errorf("close %s: %w", p, err)
	}
	return s.stat(p)
}

// Modify overwrites an existing document in full.
func (s *FS) Modify(ctx context.Context, p, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	abs, err := s.g.resolve(p)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return fmt.Errorf("stat %s: %w", p, err)
	}
	if err := os.WriteFile(abs, []byte(content), info.Mode().Perm()); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

func (s *FS) occupied(ctx context.Context, p string) (string, error) {
	docs, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	for _, d := range docs {
		if strings.EqualFold(d.Path, p) {
			return d.Path, nil
		}
	}
	return "", nil
}

func (s *FS) stat(p string) (Document, error) {
	abs, err := s.g.resolve(p)
	if err != nil {
		return Document{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return Document{}, fmt.Errorf("stat %s: %w", p, err)
	}
	if info.IsDir() {
		return Document{}, fmt.Errorf("%s is a folder", p)
	}
	return newDocument(CleanPath(p), info), nil
}

func newDocument(rel string, info fs.FileInfo) Document {
	name := path.Base(rel)
	return Document{
		Path:     rel,
		Name:     name,
		Basename: strings.TrimSuffix(name, path.Ext(name)),
		ModTime:  info.ModTime(),
		Size:     info.Size(),
	}
}

// CleanPath normalises a user supplied vault path to slash form without a leading slash.
func CleanPath(p string) string {
	p = strings.TrimSpace(filepath.ToSlash(p))
	if p == "" {
		return ""
	}
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}
