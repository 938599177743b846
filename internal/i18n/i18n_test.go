package i18n

import "testing"

func TestNew_English(t *testing.T) {
	i := New("en")
	if i.Locale() != "en" {
		t.Fatalf("Locale()=%q, want en", i.Locale())
	}
	got := i.T("notice.note_empty")
	if got != "Note is empty" {
		t.Fatalf("T(notice.note_empty)=%q, want Note is empty", got)
	}
}

func TestNew_ChineseFromLang(t *testing.T) {
	i := New("zh_CN.UTF-8")
	if i.Locale() != "zh-CN" {
		t.Fatalf("Locale()=%q, want zh-CN", i.Locale())
	}
	got := i.T("notice.note_empty")
	if got != "笔记为空" {
		t.Fatalf("T(notice.note_empty)=%q, want 笔记为空", got)
	}
}

func TestT_WithArgs(t *testing.T) {
	i := New("en")
	got := i.T("notice.calendar_found", 3)
	if got != "Found 3 calendar items" {
		t.Fatalf("T with args=%q", got)
	}
}

func TestT_MissingKey(t *testing.T) {
	i := New("en")
	got := i.T("nonexistent.key")
	if got != "nonexistent.key" {
		t.Fatalf("T missing key=%q, want key itself", got)
	}
}

func TestCatalogsHaveSameKeys(t *testing.T) {
	for k := range EnMessages {
		if _, ok := ZhCNMessages[k]; !ok {
			t.Errorf("zh-CN catalog missing %q", k)
		}
	}
	for k := range ZhCNMessages {
		if _, ok := EnMessages[k]; !ok {
			t.Errorf("zh-CN catalog has extra key %q", k)
		}
	}
}

func TestDetectLocale(t *testing.T) {
	t.Setenv("NOTEASSIST_LANG", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "C")
	if got := DetectLocale(); got != "en" {
		t.Fatalf("DetectLocale()=%q, want en", got)
	}
	t.Setenv("NOTEASSIST_LANG", "zh")
	if got := DetectLocale(); got != "zh-CN" {
		t.Fatalf("DetectLocale()=%q, want zh-CN", got)
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en_US.UTF-8", "en"},
		{"zh_CN.UTF-8", "zh-CN"},
		{"zh_TW", "zh-CN"},
		{"en", "en"},
		{"", "en"},
		{"fr_FR", "fr-FR"},
	}
	for _, tt := range tests {
		got := normalizeLocale(tt.input)
		if got != tt.expected {
			t.Errorf("normalizeLocale(%q)=%q, want %q", tt.input, got, tt.expected)
		}
	}
}
