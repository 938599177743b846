package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"noteassist/internal/chat"
)

const modelsCacheKey = "models"

// OpenAIProvider 使用 go-openai SDK 的 Provider 实现
// OpenAIProvider implements Provider using the go-openai SDK
type OpenAIProvider struct {
	client             *openai.Client
	transcriptionModel string
	models             *cache.Cache
	logger             *zap.Logger
}

// OpenAIConfig SDK provider 配置
// OpenAIConfig is the SDK provider configuration
type OpenAIConfig struct {
	BaseURL            string
	APIKey             string
	TimeoutMS          int
	TranscriptionModel string
	ModelsTTL          time.Duration
	HTTPClient         *http.Client
}

// NewOpenAIProvider 创建基于 SDK 的 provider；TimeoutMS 为 0 时不设超时
// NewOpenAIProvider creates an SDK-based provider. A zero TimeoutMS means no timeout.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		config.BaseURL = base
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.TimeoutMS > 0 {
		httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	config.HTTPClient = httpClient

	ttl := cfg.ModelsTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	model := strings.TrimSpace(cfg.TranscriptionModel)
	if model == "" {
		model = openai.Whisper1
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &OpenAIProvider{
		client:             openai.NewClientWithConfig(config),
		transcriptionModel: model,
		models:             cache.New(ttl, 2*ttl),
		logger:             logger,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    convertMessages(req.Messages),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		wrapped := wrapRequestError("chat completion", err)
		p.logger.Warn("chat completion failed", zap.String("model", req.Model), zap.Error(wrapped))
		return ChatResponse{}, wrapped
	}
	if len(resp.Choices) == 0 {
		return ChatResponse{}, &RequestError{Op: "chat completion", StatusCode: http.StatusOK, Err: ErrEmptyReply}
	}
	p.logger.Debug("chat completion",
		zap.String("model", req.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)),
	)

	choice := resp.Choices[0]
	return ChatResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Transcribe 以 multipart 上传音频；filename 为空时使用 recording.wav
// Transcribe uploads audio as multipart form data. An empty filename defaults to recording.wav.
func (p *OpenAIProvider) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if strings.TrimSpace(filename) == "" {
		filename = "recording.wav"
	}
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.transcriptionModel,
		FilePath: filename,
		Reader:   audio,
	})
	if err != nil {
		wrapped := wrapRequestError("transcription", err)
		p.logger.Warn("transcription failed", zap.Error(wrapped))
		return "", wrapped
	}
	return resp.Text, nil
}

// ListModels 列出可用模型，结果在进程内缓存
// ListModels lists available models; results are cached in-process.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if cached, ok := p.models.Get(modelsCacheKey); ok {
		if models, ok := cached.([]ModelInfo); ok {
			return append([]ModelInfo(nil), models...), nil
		}
	}
	resp, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", wrapRequestError("list models", err))
	}
	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, ModelInfo{
			ID:      m.ID,
			OwnedBy: m.OwnedBy,
		})
	}
	p.models.Set(modelsCacheKey, models, cache.DefaultExpiration)
	return append([]ModelInfo(nil), models...), nil
}

func convertMessages(messages []chat.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return out
}
