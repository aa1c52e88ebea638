package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func clearOverrideEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvAPIKeyAlt, EnvTranscriptionModel, EnvStructuringModel, EnvClientBaseURL} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "murmur.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearOverrideEnv(t)

	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Fatal("file should not exist")
	}
	if cfg.Paths.APIBind != "127.0.0.1:5000" {
		t.Fatalf("unexpected api bind %q", cfg.Paths.APIBind)
	}
	if cfg.Storage.Backend != "file" {
		t.Fatalf("unexpected storage backend %q", cfg.Storage.Backend)
	}
	if cfg.Capture.MaxRecordingSeconds != 60 || cfg.Capture.ProcessingTimeoutSeconds != 30 {
		t.Fatalf("unexpected capture defaults: %+v", cfg.Capture)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	clearOverrideEnv(t)

	path := writeConfig(t, `
[paths]
data_dir = "/tmp/murmur-test-data"

[client]
base_url = "http://example.com:5000/"

[openai]
api_key = "  sk-abc  "
structuring_model = "gpt-custom"

[storage]
backend = "SQLite"
`)

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected resolved existing path, got %q exists=%v", resolved, exists)
	}
	if cfg.Client.BaseURL != "http://example.com:5000" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.Client.BaseURL)
	}
	if cfg.OpenAI.APIKey != "sk-abc" {
		t.Fatalf("api key should be trimmed, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Fatalf("backend should be lowercased, got %q", cfg.Storage.Backend)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	clearOverrideEnv(t)

	path := writeConfig(t, `
[storage]
backend = "redis"
`)
	if _, _, _, err := Load(path); err == nil || !strings.Contains(err.Error(), "storage.backend") {
		t.Fatalf("expected backend validation error, got %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearOverrideEnv(t)
	t.Setenv(EnvAPIKey, "sk-env")
	t.Setenv(EnvTranscriptionModel, "custom-transcribe")
	t.Setenv(EnvClientBaseURL, "http://env.example:5000")

	cfg, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Fatalf("expected env api key, got %q", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.TranscriptionModel != "custom-transcribe" {
		t.Fatalf("expected env transcription model, got %q", cfg.OpenAI.TranscriptionModel)
	}
	if cfg.Client.BaseURL != "http://env.example:5000" {
		t.Fatalf("expected env base url, got %q", cfg.Client.BaseURL)
	}
}

func TestMurmurAPIKeyBeatsGenericKey(t *testing.T) {
	clearOverrideEnv(t)
	t.Setenv(EnvAPIKey, "sk-generic")
	t.Setenv(EnvAPIKeyAlt, "sk-murmur")

	cfg, _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-murmur" {
		t.Fatalf("murmur-specific key should win, got %q", cfg.OpenAI.APIKey)
	}
}

func TestGenericKeyDoesNotOverrideFileValue(t *testing.T) {
	clearOverrideEnv(t)
	t.Setenv(EnvAPIKey, "sk-generic")

	path := writeConfig(t, `
[openai]
api_key = "sk-from-file"
`)
	cfg, _, _, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-from-file" {
		t.Fatalf("file value should win over generic env key, got %q", cfg.OpenAI.APIKey)
	}
}

func TestCandidateLists(t *testing.T) {
	cases := []struct {
		name     string
		override string
		defaults []string
		want     []string
	}{
		{"no override", "", []string{"a", "b"}, []string{"a", "b"}},
		{"override first", "z", []string{"a", "b"}, []string{"z", "a", "b"}},
		{"override duplicates default", "a", []string{"a", "b"}, []string{"a", "b"}},
		{"blank entries dropped", "  ", []string{"a", "", "b"}, []string{"a", "b"}},
		{"override trimmed", " z ", []string{"a"}, []string{"z", "a"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := candidateList(tc.override, tc.defaults); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("candidateList = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTranscriptionCandidatesUseOverride(t *testing.T) {
	cfg := Default()
	cfg.OpenAI.TranscriptionModel = "my-model"

	got := cfg.TranscriptionCandidates()
	want := []string{"my-model", "gpt-4o-mini-transcribe", "whisper-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("candidates = %v, want %v", got, want)
	}

	structuring := cfg.StructuringCandidates()
	if !reflect.DeepEqual(structuring, []string{"gpt-5-mini", "gpt-4o-mini"}) {
		t.Fatalf("structuring candidates = %v", structuring)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	clearOverrideEnv(t)

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("sample config should parse: %v", err)
	}
	if !exists {
		t.Fatal("sample config should exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}
