// Package bootstrap wires configuration into a ready assistant service.
package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"noteassist/internal/assistant"
	"noteassist/internal/config"
	"noteassist/internal/contextmgr"
	"noteassist/internal/i18n"
	"noteassist/internal/logging"
	"noteassist/internal/notes"
	"noteassist/internal/provider"
	"noteassist/internal/storage"
	"noteassist/internal/vault"
)

const journalFile = "noteassist.db"

// Options 构建参数；空字段使用配置中的值
// Options tune Build. Zero values fall back to the configuration.
type Options struct {
	// VaultRoot overrides cfg.Vault.Root.
	VaultRoot string
	Verbose   bool
	Console   io.Writer
	// Provider replaces the OpenAI client, mainly for tests.
	Provider provider.Provider
}

// BuildResult 与 UI 无关的构建结果，供 main 使用
// BuildResult is UI-agnostic; the CLI builds its commands on top of it.
// Callers must defer Close.
type BuildResult struct {
	Config   config.Config
	Service  *assistant.Service
	Vault    *vault.FS
	Journal  *storage.SQLiteStore
	Provider provider.Provider
	Logger   *zap.Logger
	I18n     *i18n.I18n

	closers []func() error
}

// Build 按顺序初始化日志、vault、存储与 provider
// Build initializes logging, the vault, the journal and the provider in that order.
func Build(cfg config.Config, opts Options) (*BuildResult, error) {
	root, err := resolveVaultRoot(cfg, opts.VaultRoot)
	if err != nil {
		return nil, err
	}
	cfg.Vault.Root = root

	res := &BuildResult{Config: cfg, I18n: i18n.New(cfg.Locale)}

	logger, closeLog, err := logging.New(logging.Options{
		Dir:     filepath.Join(cfg.Storage.BaseDir, "logs"),
		MaxMB:   cfg.Storage.LogMaxMB,
		Verbose: opts.Verbose,
		Console: opts.Console,
	})
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	res.Logger = logger
	res.closers = append(res.closers, closeLog)

	store, err := vault.Open(root)
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("open vault: %w", err)
	}
	res.Vault = store

	journal, err := storage.NewSQLiteStore(filepath.Join(cfg.Storage.BaseDir, journalFile))
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	res.Journal = journal
	res.closers = append(res.closers, journal.Close)

	res.Provider = opts.Provider
	if res.Provider == nil {
		res.Provider = provider.NewOpenAIProvider(provider.OpenAIConfig{
			BaseURL:            cfg.Provider.BaseURL,
			APIKey:             cfg.Settings.APIKey,
			TimeoutMS:          cfg.Provider.TimeoutMS,
			TranscriptionModel: cfg.Provider.TranscriptionModel,
			ModelsTTL:          time.Duration(cfg.Storage.CacheTTLHours) * time.Hour,
		}, logger)
	}

	tokenizer := contextmgr.NewTokenizerForModel(cfg.Settings.ChatModel)
	res.Service = assistant.New(assistant.Options{
		Settings:     cfg.Settings,
		UtilityModel: cfg.Provider.UtilityModel,
		Provider:     res.Provider,
		Store:        store,
		Writer:       notes.NewWriter(store, cfg.Settings.DailyNotesFolder, logger),
		Gatherer:     contextmgr.NewGatherer(store, logger).WithTokenizer(tokenizer),
		Journal:      journal,
		Tokenizer:    tokenizer,
		Logger:       logger,
	})

	logger.Debug("bootstrap complete",
		zap.String("vault", root),
		zap.String("base_dir", cfg.Storage.BaseDir),
		zap.String("chat_model", cfg.Settings.ChatModel),
		zap.Bool("api_key_set", strings.TrimSpace(cfg.Settings.APIKey) != ""),
	)
	return res, nil
}

// Close 按创建的逆序释放资源
// Close releases resources in reverse creation order.
func (r *BuildResult) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func resolveVaultRoot(cfg config.Config, vaultRoot string) (string, error) {
	root := strings.TrimSpace(vaultRoot)
	if root == "" {
		root = strings.TrimSpace(cfg.Vault.Root)
	}
	if root == "" {
		return "", fmt.Errorf("vault root is empty")
	}
	return root, nil
}
