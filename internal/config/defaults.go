package config

const (
	defaultDataDir                  = "~/.local/share/murmur"
	defaultLogDir                   = "~/.local/share/murmur/logs"
	defaultAPIBind                  = "127.0.0.1:5000"
	defaultClientTimeoutSeconds     = 30
	defaultOpenAIBaseURL            = "https://api.openai.com/v1"
	defaultOpenAITimeoutSeconds     = 60
	defaultMaxRecordingSeconds      = 60
	defaultProcessingTimeoutSeconds = 30
	defaultStorageBackend           = "file"
	defaultLogFormat                = "text"
	defaultLogLevel                 = "info"
)

// DefaultTranscriptionModels is the hardcoded transcription fallback chain.
// A configured override is consulted first.
var DefaultTranscriptionModels = []string{"gpt-4o-mini-transcribe", "whisper-1"}

// DefaultStructuringModels is the hardcoded structuring fallback chain.
var DefaultStructuringModels = []string{"gpt-5-mini", "gpt-4o-mini"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Client: Client{
			TimeoutSeconds: defaultClientTimeoutSeconds,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			TimeoutSeconds: defaultOpenAITimeoutSeconds,
		},
		Capture: Capture{
			MaxRecordingSeconds:      defaultMaxRecordingSeconds,
			ProcessingTimeoutSeconds: defaultProcessingTimeoutSeconds,
		},
		Storage: Storage{
			Backend: defaultStorageBackend,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// TranscriptionCandidates returns the ordered transcription model list with
// the configured override first, blanks dropped, duplicates removed.
func (c *Config) TranscriptionCandidates() []string {
	return candidateList(c.OpenAI.TranscriptionModel, DefaultTranscriptionModels)
}

// StructuringCandidates returns the ordered structuring model list with the
// configured override first, blanks dropped, duplicates removed.
func (c *Config) StructuringCandidates() []string {
	return candidateList(c.OpenAI.StructuringModel, DefaultStructuringModels)
}

func candidateList(override string, fallbacks []string) []string {
	raw := make([]string, 0, len(fallbacks)+1)
	raw = append(raw, override)
	raw = append(raw, fallbacks...)

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, model := range raw {
		trimmed := trimSpace(model)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}
