package contextmgr

import (
	"strings"
	"sync"
	"unicode"

	tiktoken "github.com/pkoukk/tiktoken-go"

	"noteassist/internal/chat"
)

// messageOverhead 每条聊天消息的固定开销（角色与分隔符）
const messageOverhead = 4

// encodings maps model name prefixes to BPE tables; the first match wins.
var encodings = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o", "o200k_base"},
	{"chatgpt-4o", "o200k_base"},
	{"o1", "o200k_base"},
	{"o3", "o200k_base"},
	{"o4", "o200k_base"},
	{"gpt-4", "cl100k_base"},
	{"gpt-3.5", "cl100k_base"},
}

const defaultEncoding = "cl100k_base"

// Tokenizer 估算笔记与聊天消息占用的提示 token
// Tokenizer estimates the prompt tokens that notes and chat messages cost.
// A nil Tokenizer, or one whose BPE table could not be loaded (offline
// machines have no cached table), estimates by character class instead.
type Tokenizer struct {
	mu  sync.Mutex
	enc *tiktoken.Tiktoken
}

// NewTokenizerForModel loads the BPE table used by the given chat model.
func NewTokenizerForModel(model string) *Tokenizer {
	enc, err := tiktoken.GetEncoding(encodingForModel(model))
	if err != nil {
		return &Tokenizer{}
	}
	return &Tokenizer{enc: enc}
}

// Count returns the prompt cost of a full message list.
func (t *Tokenizer) Count(messages []chat.Message) int {
	total := 0
	for _, m := range messages {
		total += messageOverhead + t.CountText(m.Role) + t.CountText(m.Content)
	}
	return total
}

// CountText returns the token cost of one block of text, such as a note body.
func (t *Tokenizer) CountText(text string) int {
	if text == "" {
		return 0
	}
	if t == nil || t.enc == nil {
		return estimateTokens(text)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.enc.Encode(text, nil, nil))
}

func encodingForModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	for _, e := range encodings {
		if strings.HasPrefix(m, e.prefix) {
			return e.encoding
		}
	}
	return defaultEncoding
}

// estimateTokens 按字符类别估算：表意文字约 1.5 token/字，其余约 4 字符/token
// estimateTokens counts ideographic and syllabic scripts at about 1.5 tokens
// per character and everything else at about 4 characters per token.
func estimateTokens(text string) int {
	wide, narrow := 0, 0
	for _, r := range text {
		if isWide(r) {
			wide++
		} else {
			narrow++
		}
	}
	n := (wide*3)/2 + narrow/4
	if n == 0 {
		return 1
	}
	return n
}

func isWide(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hangul, unicode.Hiragana, unicode.Katakana) ||
		(r >= 0x3000 && r <= 0x303F) || // CJK punctuation
		(r >= 0xFF00 && r <= 0xFFEF) // fullwidth forms
}
