package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrUnknownSetting is returned by SetSetting for keys outside the settings section.
var ErrUnknownSetting = errors.New("unknown setting")

var boolSettings = map[string]struct{}{
	"auto_tag_enabled":      {},
	"auto_calendar_enabled": {},
	"auto_task_enabled":     {},
}

var stringSettings = map[string]struct{}{
	"openai_api_key":     {},
	"daily_notes_folder": {},
	"chat_model":         {},
}

// SettingKeys lists the keys accepted by SetSetting in display order.
func SettingKeys() []string {
	return []string{
		"openai_api_key",
		"auto_tag_enabled",
		"auto_calendar_enabled",
		"auto_task_enabled",
		"daily_notes_folder",
		"chat_model",
	}
}

// DefaultProjectPath is where SetSetting writes when no config file was found.
func DefaultProjectPath(projectDir string) string {
	return filepath.Join(strings.TrimSpace(projectDir), ".noteassist", "config.json")
}

// SetSetting 将 settings.<key> 写入指定配置文件；文件或目录不存在则创建
// SetSetting writes settings.<key> into the config file at path, creating it if needed.
// Other sections and unknown keys in the file are preserved.
func SetSetting(path, key, value string) error {
	key = strings.TrimSpace(key)
	var typed any
	if _, ok := boolSettings[key]; ok {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("setting %s expects true or false, got %q", key, value)
		}
		typed = b
	} else if _, ok := stringSettings[key]; ok {
		typed = strings.TrimSpace(value)
	} else {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}
	if resolved == "" {
		return errors.New("config path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	var root map[string]any
	data, err := os.ReadFile(resolved)
	if err == nil {
		if err := json.Unmarshal(stripJSONComments(data), &root); err != nil {
			return fmt.Errorf("parse config %q: %w", resolved, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read config %q: %w", resolved, err)
	}
	if root == nil {
		root = make(map[string]any)
	}
	settings, _ := root["settings"].(map[string]any)
	if settings == nil {
		settings = make(map[string]any)
	}
	settings[key] = typed
	root["settings"] = settings

	data, err = json.MarshalIndent(root, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(resolved, data, 0o600)
}
