package config

const (
	DefaultChatModel          = "gpt-4"
	DefaultUtilityModel       = "gpt-3.5-turbo"
	DefaultTranscriptionModel = "whisper-1"
	DefaultNotesFolder        = "Daily Notes"
	DefaultBaseURL            = "https://api.openai.com/v1"

	DefaultLogMaxMB      = 20
	DefaultCacheTTLHours = 24
)
