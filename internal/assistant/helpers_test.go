package assistant

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"noteassist/internal/config"
	"noteassist/internal/provider"
	"noteassist/internal/vault"
)

type fakeProvider struct {
	mu       sync.Mutex
	replies  []string
	err      error
	requests []provider.ChatRequest
	text     string
}

func (f *fakeProvider) Chat(_ context.Context, req provider.ChatRequest) (provider.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return provider.ChatResponse{}, f.err
	}
	if len(f.replies) == 0 {
		return provider.ChatResponse{Content: "ok"}, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return provider.ChatResponse{Content: reply}, nil
}

func (f *fakeProvider) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	if _, err := io.ReadAll(audio); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeProvider) ListModels(context.Context) ([]provider.ModelInfo, error) {
	return nil, errors.New("not supported")
}

func (f *fakeProvider) calls() []provider.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.ChatRequest(nil), f.requests...)
}

var fixedNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func testSettings() config.Settings {
	s := config.Default().Settings
	s.APIKey = "sk-test"
	s.AutoTagEnabled = false
	s.AutoCalendarEnabled = false
	s.AutoTaskEnabled = false
	return s
}

type fixture struct {
	root  string
	store *vault.FS
	prov  *fakeProvider
	svc   *Service
}

func newFixture(t *testing.T, files map[string]string, settings config.Settings, opts ...func(*Options)) *fixture {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		writeNote(t, root, rel, content)
	}
	store, err := vault.Open(root)
	if err != nil {
		t.Fatal(err)
	}
	prov := &fakeProvider{}
	o := Options{
		Settings: settings,
		Provider: prov,
		Store:    store,
		Now:      func() time.Time { return fixedNow },
	}
	for _, fn := range opts {
		fn(&o)
	}
	return &fixture{root: root, store: store, prov: prov, svc: New(o)}
}

func writeNote(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func (f *fixture) read(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func (f *fixture) doc(t *testing.T, rel string) vault.Document {
	t.Helper()
	docs, err := f.store.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for _, d := range docs {
		if d.Path == rel {
			return d
		}
	}
	t.Fatalf("document %s not found", rel)
	return vault.Document{}
}
