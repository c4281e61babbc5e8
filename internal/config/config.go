// Package config loads daemon settings from flags, the environment, an
// optional .env file and an optional thaili.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	log "log/slog"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "THAILI"

// Recognizer backends.
const (
	BackendWhisper = "whisper"
	BackendOpenAI  = "openai"
	BackendConsole = "console"
)

// Synthesizer backends.
const (
	TTSEspeak  = "espeak"
	TTSConsole = "console"
)

type Config struct {
	LogLevel string

	Dialogue   DialogueConfig
	Voice      VoiceConfig
	Recognizer RecognizerConfig
	TTS        string
	OpenAIKey  string
	Proxy      string

	TrainingURL string
	Trainer     TrainerConfig
	Bus         BusConfig
	Socket      string
	CueFile     string
	Duck        bool
}

type DialogueConfig struct {
	Lang            string
	ActivationDelay time.Duration
	StopDelay       time.Duration
}

type VoiceConfig struct {
	Rate   float64
	Pitch  float64
	Volume float64
	Hints  []string
}

type RecognizerConfig struct {
	Backend string
	Model   string
	Threads int
	Files   []string
}

type TrainerConfig struct {
	Enabled   bool
	Addr      string
	RateLimit int // requests per minute per client, 0 disables
}

type BusConfig struct {
	URL  string
	Name string
	Peer string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")

	v.SetDefault("dialogue.lang", "ne-NP")
	v.SetDefault("dialogue.activation_delay", 2*time.Second)
	v.SetDefault("dialogue.stop_delay", 2*time.Second)

	v.SetDefault("voice.rate", 0.8)
	v.SetDefault("voice.pitch", 1.1)
	v.SetDefault("voice.volume", 0.9)
	v.SetDefault("voice.hints", []string{"ne", "hi", "en"})

	v.SetDefault("recognizer.backend", BackendWhisper)
	v.SetDefault("recognizer.model", "models/ggml-small.bin")
	v.SetDefault("recognizer.threads", 0)

	v.SetDefault("tts.backend", TTSEspeak)

	v.SetDefault("trainer.enabled", false)
	v.SetDefault("trainer.addr", ":8085")
	v.SetDefault("trainer.rate_limit", 60)

	v.SetDefault("bus.name", "thaili")
	v.SetDefault("bus.peer", "all")

	v.SetDefault("duck.enabled", false)
}

// Flags declares every flag of the daemon on fs.
func Flags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "Config file (default ./thaili.yaml)")
	fs.StringP("env", "e", ".env", "Env file path")
	fs.StringP("log", "l", "info", "Log level")
	fs.String("lang", "ne-NP", "Recognition and synthesis language")
	fs.StringP("backend", "b", BackendWhisper, "Recognizer: whisper, openai or console")
	fs.StringP("model", "m", "", "Whisper model path")
	fs.StringSliceP("file", "f", nil, "Recognize audio files instead of the microphone")
	fs.String("tts", TTSEspeak, "Synthesizer: espeak or console")
	fs.StringP("proxy", "p", "", "SOCKS5 proxy address for outbound HTTP")
	fs.String("train-url", "", "Training endpoint base URL")
	fs.String("bus", "", "Host bus WebSocket URL")
	fs.String("socket", "", "Control socket path")
	fs.Bool("trainer", false, "Serve the training API in-process")
	fs.String("trainer-addr", ":8085", "Training API listen address")
	fs.String("cue", "", "Sound played when listening starts")
	fs.Bool("duck", false, "Lower other audio while listening")
}

var flagKeys = map[string]string{
	"log":          "log.level",
	"lang":         "dialogue.lang",
	"backend":      "recognizer.backend",
	"model":        "recognizer.model",
	"file":         "recognizer.files",
	"tts":          "tts.backend",
	"proxy":        "proxy.socks",
	"train-url":    "training.url",
	"bus":          "bus.url",
	"socket":       "ipc.socket",
	"trainer":      "trainer.enabled",
	"trainer-addr": "trainer.addr",
	"cue":          "cue.file",
	"duck":         "duck.enabled",
}

// Load reads the configuration for a FlagSet already parsed with Flags.
// Precedence: flags, environment, config file, defaults.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if envFile, _ := flags.GetString("env"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("openai.api_key", EnvPrefix+"_OPENAI_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, err
	}

	if file, _ := flags.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("thaili")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/thaili")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		log.Debug("Loaded config file", "path", v.ConfigFileUsed())
	}

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		LogLevel: v.GetString("log.level"),
		Dialogue: DialogueConfig{
			Lang:            v.GetString("dialogue.lang"),
			ActivationDelay: v.GetDuration("dialogue.activation_delay"),
			StopDelay:       v.GetDuration("dialogue.stop_delay"),
		},
		Voice: VoiceConfig{
			Rate:   v.GetFloat64("voice.rate"),
			Pitch:  v.GetFloat64("voice.pitch"),
			Volume: v.GetFloat64("voice.volume"),
			Hints:  v.GetStringSlice("voice.hints"),
		},
		Recognizer: RecognizerConfig{
			Backend: v.GetString("recognizer.backend"),
			Model:   v.GetString("recognizer.model"),
			Threads: v.GetInt("recognizer.threads"),
			Files:   v.GetStringSlice("recognizer.files"),
		},
		TTS:         v.GetString("tts.backend"),
		OpenAIKey:   v.GetString("openai.api_key"),
		Proxy:       v.GetString("proxy.socks"),
		TrainingURL: v.GetString("training.url"),
		Trainer: TrainerConfig{
			Enabled:   v.GetBool("trainer.enabled"),
			Addr:      v.GetString("trainer.addr"),
			RateLimit: v.GetInt("trainer.rate_limit"),
		},
		Bus: BusConfig{
			URL:  v.GetString("bus.url"),
			Name: v.GetString("bus.name"),
			Peer: v.GetString("bus.peer"),
		},
		Socket:  v.GetString("ipc.socket"),
		CueFile: v.GetString("cue.file"),
		Duck:    v.GetBool("duck.enabled"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, ok := LogLevels[strings.ToLower(c.LogLevel)]; !ok {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if !slices.Contains([]string{BackendWhisper, BackendOpenAI, BackendConsole}, c.Recognizer.Backend) {
		return fmt.Errorf("unknown recognizer backend %q", c.Recognizer.Backend)
	}
	if !slices.Contains([]string{TTSEspeak, TTSConsole}, c.TTS) {
		return fmt.Errorf("unknown tts backend %q", c.TTS)
	}
	if c.Recognizer.Backend == BackendOpenAI && c.OpenAIKey == "" {
		return errors.New("openai backend needs OPENAI_API_KEY")
	}
	if c.Recognizer.Backend == BackendWhisper && c.Recognizer.Model == "" {
		return errors.New("whisper backend needs a model path")
	}
	if c.Dialogue.ActivationDelay < 0 || c.Dialogue.StopDelay < 0 {
		return errors.New("delays must not be negative")
	}
	if c.Voice.Rate <= 0 || c.Voice.Pitch <= 0 || c.Voice.Volume <= 0 {
		return errors.New("voice rate, pitch and volume must be positive")
	}
	if c.Trainer.RateLimit < 0 {
		return errors.New("trainer rate limit must not be negative")
	}
	return nil
}

var LogLevels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level maps the configured log level, defaulting to info.
func (c *Config) Level() log.Level {
	if l, ok := LogLevels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.LevelInfo
}
