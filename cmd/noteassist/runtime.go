package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"noteassist/internal/assistant"
	"noteassist/internal/bootstrap"
	"noteassist/internal/config"
	"noteassist/internal/repl"
	"noteassist/internal/vault"
)

// errReported 表示错误已经以提示形式输出
var errReported = errors.New("reported")

// runtime 一次命令执行所需的全部依赖
type runtime struct {
	*bootstrap.BuildResult
	out    io.Writer
	notice *repl.Notifier
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	root, err := resolveVaultRoot(c.String("vault"), cfg)
	if err != nil {
		return nil, err
	}
	res, err := bootstrap.Build(cfg, bootstrap.Options{
		VaultRoot: root,
		Verbose:   c.Bool("verbose"),
		Console:   c.App.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	if note := strings.TrimSpace(c.String("note")); note != "" {
		if err := res.Vault.SetActive(note); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("open note %s: %w", note, err)
		}
	}
	return &runtime{
		BuildResult: res,
		out:         c.App.Writer,
		notice:      repl.NewNotifier(c.App.ErrWriter, res.I18n),
	}, nil
}

// resolveVaultRoot 优先使用 --vault，其次配置，最后当前目录
// resolveVaultRoot prefers the flag, then the configured root, then the working directory.
func resolveVaultRoot(override string, cfg config.Config) (string, error) {
	root := strings.TrimSpace(override)
	if root == "" {
		root = strings.TrimSpace(cfg.Vault.Root)
	}
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve cwd: %w", err)
		}
		root = cwd
	}
	return root, nil
}

func (rt *runtime) activeNote() (vault.Document, error) {
	doc, ok := rt.Vault.Active()
	if !ok {
		return vault.Document{}, assistant.ErrNoActiveNote
	}
	return doc, nil
}

// fail 打印本地化提示
// fail reports err as a localized notice and returns errReported.
func (rt *runtime) fail(action string, err error) error {
	rt.notice.Error(assistant.Describe(rt.I18n, action, err))
	return errReported
}
