package contextmgr

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"noteassist/internal/vault"
)

const (
	contentScanLimit = 50
	recentLimit      = 15

	matchedPreviewRunes = 1000
	otherPreviewRunes   = 500
)

// Reader 读取单篇笔记内容
// Reader reads the content of one document.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
}

// Context 一次检索的结果
// Context is the assembled prompt context plus what went into it.
type Context struct {
	Text     string
	Selected []vault.Document
	// Matched 名称/路径/内容命中的数量，回退时为 0
	// Matched counts name, path and content hits; zero when the fallback was used.
	Matched  int
	Fallback bool
	// Tokens 上下文块的提示 token 开销
	Tokens   int
}

type Gatherer struct {
	reader    Reader
	tokenizer *Tokenizer
	logger    *zap.Logger
}

func NewGatherer(reader Reader, logger *zap.Logger) *Gatherer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gatherer{reader: reader, logger: logger}
}

// WithTokenizer sets the tokenizer used to price the context block. Without
// one the cost is estimated by character class.
func (g *Gatherer) WithTokenizer(t *Tokenizer) *Gatherer {
	g.tokenizer = t
	return g
}

// Gather 按名称/路径与内容子串匹配挑选笔记，无命中时回退到最近修改的 15 篇
// Gather selects documents relevant to query and renders them as a text block.
// Name and path hits come first, then content-only hits from the first 50
// documents; with no hits the 15 most recently modified documents are used.
func (g *Gatherer) Gather(ctx context.Context, docs []vault.Document, query string) Context {
	q := strings.ToLower(query)
	contents := make(map[string]string)

	nameHit := make(map[string]bool)
	var selected []vault.Document
	for _, d := range docs {
		if matchesName(d, q) {
			nameHit[d.Path] = true
			selected = append(selected, d)
		}
	}

	scan := docs
	if len(scan) > contentScanLimit {
		scan = scan[:contentScanLimit]
	}
	for _, d := range scan {
		content, err := g.reader.Read(ctx, d.Path)
		if err != nil {
			g.logger.Debug("skip unreadable note", zap.String("path", d.Path), zap.Error(err))
			continue
		}
		contents[d.Path] = content
		if nameHit[d.Path] {
			continue
		}
		if strings.Contains(strings.ToLower(content), q) {
			selected = append(selected, d)
		}
	}

	out := Context{Matched: len(selected)}
	if len(selected) == 0 {
		selected = mostRecent(docs, recentLimit)
		out.Fallback = true
	}
	out.Selected = selected

	var b strings.Builder
	fmt.Fprintf(&b, "You have access to %d notes in this vault.\n\n", len(docs))
	if out.Fallback {
		b.WriteString("Recent notes:\n")
	} else {
		fmt.Fprintf(&b, "Found %d potentially relevant notes:\n", out.Matched)
	}
	for _, d := range selected {
		content, ok := contents[d.Path]
		if !ok {
			var err error
			content, err = g.reader.Read(ctx, d.Path)
			if err != nil {
				g.logger.Debug("skip unreadable note", zap.String("path", d.Path), zap.Error(err))
				continue
			}
		}
		limit := otherPreviewRunes
		if nameHit[d.Path] {
			limit = matchedPreviewRunes
		}
		fmt.Fprintf(&b, "\n--- %s (%s) ---\n%s\n", d.Basename, d.Path, clip(content, limit))
	}
	out.Text = b.String()
	out.Tokens = g.tokenizer.CountText(out.Text)
	g.logger.Debug("context gathered",
		zap.Int("selected", len(out.Selected)),
		zap.Bool("fallback", out.Fallback),
		zap.Int("tokens", out.Tokens),
	)
	return out
}

func matchesName(d vault.Document, q string) bool {
	base := strings.ToLower(d.Basename)
	return strings.Contains(base, q) ||
		strings.Contains(strings.ToLower(d.Path), q) ||
		strings.Contains(q, base)
}

// mostRecent returns up to n documents by descending modification time without
// reordering docs.
func mostRecent(docs []vault.Document, n int) []vault.Document {
	sorted := append([]vault.Document(nil), docs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ModTime.After(sorted[j].ModTime)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func clip(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
