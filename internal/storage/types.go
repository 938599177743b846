package storage

import "time"

// Activity 一次用户动作的结果记录
// Activity records the reported outcome of one user action
type Activity struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Target    string    `json:"target"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// DraftRecord 改写草稿及其最终状态
// DraftRecord is an improvement draft and its final status
type DraftRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
