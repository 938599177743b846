package provider

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"

	"noteassist/internal/chat"
)

// ChatRequest 封装一次补全请求
// ChatRequest wraps a single completion call
type ChatRequest struct {
	Model       string
	Messages    []chat.Message
	MaxTokens   int
	Temperature float32
}

// Usage token 用量统计
// Usage reports token consumption
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatResponse 完整响应
// ChatResponse is the complete response
type ChatResponse struct {
	Content      string
	FinishReason string
	Usage        Usage
}

// ModelInfo 模型基本信息
// ModelInfo describes a model
type ModelInfo struct {
	ID      string
	OwnedBy string
}

// Provider 远端补全与转写接口
// Provider is the remote completion and transcription backend
type Provider interface {
	// Chat 发送补全请求，返回第一个候选的文本
	// Chat sends a completion request and returns the first choice verbatim
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)

	// Transcribe 将音频转为文本
	// Transcribe turns recorded audio into text
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)

	// ListModels 列出可用模型
	// ListModels lists available models
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// RequestError 远端调用失败（非 2xx、网络错误或空响应）
// RequestError reports a failed remote call: non-2xx status, transport failure or an empty reply.
// StatusCode is 0 when no HTTP response was received.
type RequestError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// ErrEmptyReply is wrapped by RequestError when the service answers without choices.
var ErrEmptyReply = errors.New("no choices in reply")

func wrapRequestError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &RequestError{Op: op, Err: err}
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &RequestError{Op: op, StatusCode: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &RequestError{Op: op, StatusCode: reqErr.HTTPStatusCode, Err: err}
	}
	return &RequestError{Op: op, Err: err}
}
