package storage

import "context"

// Journal 记录动作结果与草稿，不保存对话内容
// Journal records action outcomes and drafts. Conversation turns are never stored.
type Journal interface {
	RecordActivity(ctx context.Context, a Activity) error
	ListActivity(ctx context.Context, limit int) ([]Activity, error)

	RecordDraft(ctx context.Context, d DraftRecord) error
	// ResolveDraft 更新草稿的最终状态与写入路径
	// ResolveDraft sets the final status of a draft and the path it was written to
	ResolveDraft(ctx context.Context, id, status, path string) error
	ListDrafts(ctx context.Context, limit int) ([]DraftRecord, error)
	LoadDraft(ctx context.Context, id string) (DraftRecord, error)

	Close() error
}
