package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Settings 用户可见的设置项
// Settings is the flat record exposed by the settings surface.
type Settings struct {
	APIKey              string `json:"openai_api_key"`
	AutoTagEnabled      bool   `json:"auto_tag_enabled"`
	AutoCalendarEnabled bool   `json:"auto_calendar_enabled"`
	AutoTaskEnabled     bool   `json:"auto_task_enabled"`
	DailyNotesFolder    string `json:"daily_notes_folder"`
	ChatModel           string `json:"chat_model"`
}

type ProviderConfig struct {
	BaseURL            string `json:"base_url"`
	TimeoutMS          int    `json:"timeout_ms"`
	UtilityModel       string `json:"utility_model"`
	TranscriptionModel string `json:"transcription_model"`
}

type VaultConfig struct {
	Root string `json:"root"`
}

type DictationConfig struct {
	// Command 录音程序及参数，输出文件路径追加在末尾
	// Command is the capture program and its arguments; the output file path is appended.
	Command []string `json:"command"`
}

type StorageConfig struct {
	BaseDir       string `json:"base_dir"`
	LogMaxMB      int    `json:"log_max_mb"`
	CacheTTLHours int    `json:"cache_ttl_hours"`
}

type Config struct {
	Settings  Settings        `json:"settings"`
	Provider  ProviderConfig  `json:"provider"`
	Vault     VaultConfig     `json:"vault"`
	Dictation DictationConfig `json:"dictation"`
	Storage   StorageConfig   `json:"storage"`
	Locale    string          `json:"locale"`
}

type fileSettings struct {
	APIKey              *string `json:"openai_api_key"`
	AutoTagEnabled      *bool   `json:"auto_tag_enabled"`
	AutoCalendarEnabled *bool   `json:"auto_calendar_enabled"`
	AutoTaskEnabled     *bool   `json:"auto_task_enabled"`
	DailyNotesFolder    *string `json:"daily_notes_folder"`
	ChatModel           *string `json:"chat_model"`
}

type fileConfig struct {
	Settings  *fileSettings    `json:"settings"`
	Provider  *ProviderConfig  `json:"provider"`
	Vault     *VaultConfig     `json:"vault"`
	Dictation *DictationConfig `json:"dictation"`
	Storage   *StorageConfig   `json:"storage"`
	Locale    *string          `json:"locale"`
}

func Default() Config {
	return Config{
		Settings: Settings{
			AutoTagEnabled:      true,
			AutoCalendarEnabled: true,
			AutoTaskEnabled:     true,
			DailyNotesFolder:    DefaultNotesFolder,
			ChatModel:           DefaultChatModel,
		},
		Provider: ProviderConfig{
			BaseURL:            DefaultBaseURL,
			UtilityModel:       DefaultUtilityModel,
			TranscriptionModel: DefaultTranscriptionModel,
		},
		Dictation: DictationConfig{
			Command: []string{"arecord", "-q", "-f", "cd", "-t", "wav"},
		},
		Storage: StorageConfig{
			BaseDir:       "~/.noteassist",
			LogMaxMB:      DefaultLogMaxMB,
			CacheTTLHours: DefaultCacheTTLHours,
		},
	}
}

// Load 按 默认值 → 全局配置 → 项目配置 → 环境变量 的顺序合并
// Load merges defaults, the global file, the project file and env overrides, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	if err := mergeFromFile(&cfg, ResolvePath(path)); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

// ResolvePath returns the project config file that Load reads for the given flag value.
func ResolvePath(path string) string {
	resolved := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("NOTEASSIST_CONFIG")); envPath != "" {
		resolved = envPath
	}
	if resolved == "" {
		resolved = findProjectConfigPath()
	}
	return resolved
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".noteassist", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"noteassist.json",
		".noteassist/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	fileCfg, err := decodeFileConfig(data)
	if err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

// decodeFileConfig strips comments and, when the remainder is still not valid
// JSON (trailing commas, unquoted keys), runs it through jsonrepair once.
func decodeFileConfig(data []byte) (fileConfig, error) {
	cleaned := stripJSONComments(data)
	var fc fileConfig
	err := json.Unmarshal(cleaned, &fc)
	if err == nil {
		return fc, nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fileConfig{}, err
	}
	repaired, repairErr := jsonrepair.JSONRepair(string(cleaned))
	if repairErr != nil {
		return fileConfig{}, err
	}
	fc = fileConfig{}
	if err := json.Unmarshal([]byte(repaired), &fc); err != nil {
		return fileConfig{}, err
	}
	return fc, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Settings != nil {
		s := fc.Settings
		if s.APIKey != nil {
			cfg.Settings.APIKey = strings.TrimSpace(*s.APIKey)
		}
		if s.AutoTagEnabled != nil {
			cfg.Settings.AutoTagEnabled = *s.AutoTagEnabled
		}
		if s.AutoCalendarEnabled != nil {
			cfg.Settings.AutoCalendarEnabled = *s.AutoCalendarEnabled
		}
		if s.AutoTaskEnabled != nil {
			cfg.Settings.AutoTaskEnabled = *s.AutoTaskEnabled
		}
		if s.DailyNotesFolder != nil {
			// 空字符串表示写入 vault 根目录 / empty means the vault root
			cfg.Settings.DailyNotesFolder = strings.TrimSpace(*s.DailyNotesFolder)
		}
		if s.ChatModel != nil && strings.TrimSpace(*s.ChatModel) != "" {
			cfg.Settings.ChatModel = strings.TrimSpace(*s.ChatModel)
		}
	}
	if fc.Provider != nil {
		cfg.Provider = mergeProvider(cfg.Provider, *fc.Provider)
	}
	if fc.Vault != nil && strings.TrimSpace(fc.Vault.Root) != "" {
		cfg.Vault.Root = fc.Vault.Root
	}
	if fc.Dictation != nil && len(fc.Dictation.Command) > 0 {
		cfg.Dictation.Command = append([]string(nil), fc.Dictation.Command...)
	}
	if fc.Storage != nil {
		cfg.Storage = mergeStorage(cfg.Storage, *fc.Storage)
	}
	if fc.Locale != nil {
		cfg.Locale = strings.TrimSpace(*fc.Locale)
	}
}

func mergeProvider(base ProviderConfig, override ProviderConfig) ProviderConfig {
	if strings.TrimSpace(override.BaseURL) != "" {
		base.BaseURL = override.BaseURL
	}
	if override.TimeoutMS > 0 {
		base.TimeoutMS = override.TimeoutMS
	}
	if strings.TrimSpace(override.UtilityModel) != "" {
		base.UtilityModel = override.UtilityModel
	}
	if strings.TrimSpace(override.TranscriptionModel) != "" {
		base.TranscriptionModel = override.TranscriptionModel
	}
	return base
}

func mergeStorage(base StorageConfig, override StorageConfig) StorageConfig {
	if strings.TrimSpace(override.BaseDir) != "" {
		base.BaseDir = override.BaseDir
	}
	if override.LogMaxMB > 0 {
		base.LogMaxMB = override.LogMaxMB
	}
	if override.CacheTTLHours > 0 {
		base.CacheTTLHours = override.CacheTTLHours
	}
	return base
}

func normalize(cfg *Config) error {
	def := Default()
	if strings.TrimSpace(cfg.Settings.ChatModel) == "" {
		cfg.Settings.ChatModel = def.Settings.ChatModel
	}
	cfg.Settings.DailyNotesFolder = strings.Trim(strings.TrimSpace(cfg.Settings.DailyNotesFolder), "/")

	cfg.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Provider.BaseURL), "/")
	if cfg.Provider.BaseURL == "" {
		cfg.Provider.BaseURL = def.Provider.BaseURL
	}
	if cfg.Provider.TimeoutMS < 0 {
		cfg.Provider.TimeoutMS = 0
	}
	if strings.TrimSpace(cfg.Provider.UtilityModel) == "" {
		cfg.Provider.UtilityModel = def.Provider.UtilityModel
	}
	if strings.TrimSpace(cfg.Provider.TranscriptionModel) == "" {
		cfg.Provider.TranscriptionModel = def.Provider.TranscriptionModel
	}
	if len(cfg.Dictation.Command) == 0 {
		cfg.Dictation.Command = def.Dictation.Command
	}

	if strings.TrimSpace(cfg.Storage.BaseDir) == "" {
		cfg.Storage.BaseDir = def.Storage.BaseDir
	}
	storageDir, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	cfg.Storage.BaseDir = storageDir
	if cfg.Storage.LogMaxMB <= 0 {
		cfg.Storage.LogMaxMB = def.Storage.LogMaxMB
	}
	if cfg.Storage.CacheTTLHours <= 0 {
		cfg.Storage.CacheTTLHours = def.Storage.CacheTTLHours
	}

	if root := strings.TrimSpace(cfg.Vault.Root); root != "" {
		expanded, err := expandPath(root)
		if err != nil {
			return err
		}
		cfg.Vault.Root = expanded
	}
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("NOTEASSIST_API_KEY")); v != "" {
		cfg.Settings.APIKey = v
	} else if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" && cfg.Settings.APIKey == "" {
		cfg.Settings.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTEASSIST_BASE_URL")); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTEASSIST_MODEL")); v != "" {
		cfg.Settings.ChatModel = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTEASSIST_VAULT")); v != "" {
		cfg.Vault.Root = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTEASSIST_HOME")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTEASSIST_LANG")); v != "" {
		cfg.Locale = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTEASSIST_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid NOTEASSIST_TIMEOUT_MS: %q", v)
		}
		cfg.Provider.TimeoutMS = n
	}

	return cfg, normalize(&cfg)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
