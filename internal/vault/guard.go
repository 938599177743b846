package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathOutsideVault = errors.New("path outside vault")

type guard struct {
	root string
}

func newGuard(root string) (*guard, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("vault root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs vault root: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		resolved = abs
	}
	return &guard{root: resolved}, nil
}

// resolve maps a vault-relative slash path onto the filesystem, rejecting
// anything that lands outside the root after symlinks are followed.
func (g *guard) resolve(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return "", errors.New("path is empty")
	}
	target := filepath.FromSlash(rel)
	if filepath.IsAbs(target) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideVault, rel)
	}
	clean := filepath.Clean(filepath.Join(g.root, target))
	resolved, err := resolveWithParentSymlink(clean)
	if err != nil {
		return "", err
	}

	r, err := filepath.Rel(g.root, resolved)
	if err != nil {
		return "", fmt.Errorf("relative path check: %w", err)
	}
	if r == "." || r == ".." || strings.HasPrefix(r, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideVault, rel)
	}
	return resolved, nil
}

func resolveWithParentSymlink(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("resolve symlink: %w", err)
	}

	// 目标不存在时沿父目录向上找到第一个存在的祖先再解析
	// Walk up to the nearest existing ancestor so new nested folders still resolve.
	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	parentResolved, err := resolveWithParentSymlink(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(parentResolved, filepath.Base(path)), nil
}
