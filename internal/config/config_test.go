package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "log/slog"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("thaili", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(parse(t, "--env", ""))
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, log.LevelInfo, cfg.Level())
	assert.Equal(t, "ne-NP", cfg.Dialogue.Lang)
	assert.Equal(t, 2*time.Second, cfg.Dialogue.ActivationDelay)
	assert.Equal(t, 2*time.Second, cfg.Dialogue.StopDelay)
	assert.Equal(t, VoiceConfig{Rate: 0.8, Pitch: 1.1, Volume: 0.9, Hints: []string{"ne", "hi", "en"}}, cfg.Voice)
	assert.Equal(t, BackendWhisper, cfg.Recognizer.Backend)
	assert.Equal(t, TTSEspeak, cfg.TTS)
	assert.Equal(t, ":8085", cfg.Trainer.Addr)
	assert.Equal(t, 60, cfg.Trainer.RateLimit)
	assert.False(t, cfg.Trainer.Enabled)
	assert.Equal(t, "thaili", cfg.Bus.Name)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "thaili.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  level: warn
dialogue:
  stop_delay: 3s
recognizer:
  backend: openai
voice:
  hints: [hi, en]
training:
  url: https://example.test/api/voice-training
`), 0o644))

	t.Setenv("THAILI_LOG_LEVEL", "error")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load(parse(t, "--env", "", "-c", file, "--log", "debug", "--backend", "console", "--duck"))
	require.NoError(t, err)

	// flag beats env beats file
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendConsole, cfg.Recognizer.Backend)
	assert.Equal(t, 3*time.Second, cfg.Dialogue.StopDelay)
	assert.Equal(t, []string{"hi", "en"}, cfg.Voice.Hints)
	assert.Equal(t, "https://example.test/api/voice-training", cfg.TrainingURL)
	assert.Equal(t, "sk-test", cfg.OpenAIKey)
	assert.True(t, cfg.Duck)
}

func TestLoadEnvFile(t *testing.T) {
	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("THAILI_BUS_URL=ws://localhost:8092/ws\nTHAILI_TRAINER_RATE_LIMIT=5\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("THAILI_BUS_URL")
		os.Unsetenv("THAILI_TRAINER_RATE_LIMIT")
	})

	cfg, err := Load(parse(t, "--env", env, "--file", "a.wav,b.ogg"))
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8092/ws", cfg.Bus.URL)
	assert.Equal(t, 5, cfg.Trainer.RateLimit)
	assert.Equal(t, []string{"a.wav", "b.ogg"}, cfg.Recognizer.Files)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "backend", args: []string{"--backend", "kaldi"}},
		{name: "tts", args: []string{"--tts", "festival"}},
		{name: "log level", args: []string{"--log", "loud"}},
		{name: "openai without key", args: []string{"--backend", "openai"}, env: map[string]string{"OPENAI_API_KEY": "", "THAILI_OPENAI_API_KEY": ""}},
		{name: "voice", env: map[string]string{"THAILI_VOICE_RATE": "0"}},
		{name: "config file", args: []string{"-c", "/nonexistent/thaili.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(parse(t, append([]string{"--env", ""}, tt.args...)...))
			assert.Error(t, err)
		})
	}
}
