package config

import (
	"log"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Local"
	// ConfigPathEnv points at an optional YAML file.
	ConfigPathEnv = "CITYPODCAST_CONFIG"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Server    ServerConfig    `yaml:"server"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	News      NewsConfig      `yaml:"news"`
	LLM       LLMConfig       `yaml:"llm"`
	Speech    SpeechConfig    `yaml:"speech"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ServerConfig describes the HTTP listener and the audio directory it serves.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	AudioDir string `yaml:"audioDir"`
}

// SchedulerConfig defines where daily podcasts are evaluated.
type SchedulerConfig struct {
	Timezone    string         `yaml:"timezone"`
	DefaultTime string         `yaml:"defaultTime"`
	RunTimeout  time.Duration  `yaml:"runTimeout"`
	location    *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.Local
}

// NewsConfig wires the NewsAPI collaborator.
type NewsConfig struct {
	Endpoint string        `yaml:"endpoint"`
	APIKey   string        `yaml:"apiKey"`
	Language string        `yaml:"language"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig selects the script-writing provider.
type LLMConfig struct {
	Provider string       `yaml:"provider"`
	OpenAI   OpenAIConfig `yaml:"openai"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

// OpenAIConfig defines how to contact the OpenAI chat API.
type OpenAIConfig struct {
	BaseURL string        `yaml:"baseUrl"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

// GeminiConfig defines how to contact the Gemini API.
type GeminiConfig struct {
	Model  string `yaml:"model"`
	APIKey string `yaml:"apiKey"`
}

// SpeechConfig wires the ElevenLabs collaborator.
type SpeechConfig struct {
	Endpoint     string            `yaml:"endpoint"`
	APIKey       string            `yaml:"apiKey"`
	OutputFormat string            `yaml:"outputFormat"`
	DefaultVoice string            `yaml:"defaultVoice"`
	Voices       map[string]string `yaml:"voices"`
	Timeout      time.Duration     `yaml:"timeout"`
}

type envOverrides struct {
	NewsAPIKey        string `env:"NEWS_API_KEY"`
	OpenAIAPIKey      string `env:"OPENAI_API_KEY"`
	GeminiAPIKey      string `env:"GEMINI_API_KEY"`
	ElevenLabsAPIKey  string `env:"ELEVENLABS_API_KEY"`
	LLMProvider       string `env:"LLM_PROVIDER"`
	LLMModel          string `env:"LLM_MODEL"`
	HTTPAddr          string `env:"HTTP_ADDR"`
	AudioDir          string `env:"AUDIO_DIR"`
	LogLevel          string `env:"LOG_LEVEL"`
	LogFormat         string `env:"LOG_FORMAT"`
	SchedulerTimezone string `env:"SCHEDULER_TIMEZONE"`
}

// Load reads YAML configuration from $CITYPODCAST_CONFIG (if set) and applies environment overrides.
func Load() Config {
	return LoadFile(os.Getenv(ConfigPathEnv))
}

// LoadFile reads YAML configuration from path (if non-empty) and applies environment overrides.
func LoadFile(path string) Config {
	cfg := defaultConfig()

	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		log.Printf("config: cannot parse environment: %v", err)
		return
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&c.News.APIKey, o.NewsAPIKey)
	set(&c.LLM.OpenAI.APIKey, o.OpenAIAPIKey)
	set(&c.LLM.Gemini.APIKey, o.GeminiAPIKey)
	set(&c.Speech.APIKey, o.ElevenLabsAPIKey)
	set(&c.LLM.Provider, o.LLMProvider)
	set(&c.Server.Addr, o.HTTPAddr)
	set(&c.Server.AudioDir, o.AudioDir)
	set(&c.Logging.Level, o.LogLevel)
	set(&c.Logging.Format, o.LogFormat)
	set(&c.Scheduler.Timezone, o.SchedulerTimezone)

	if o.LLMModel != "" {
		if strings.EqualFold(strings.TrimSpace(c.LLM.Provider), "gemini") {
			c.LLM.Gemini.Model = o.LLMModel
		} else {
			c.LLM.OpenAI.Model = o.LLMModel
		}
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc = time.Local
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.AudioDir != "" {
		base.Server.AudioDir = override.Server.AudioDir
	}

	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.DefaultTime != "" {
		base.Scheduler.DefaultTime = override.Scheduler.DefaultTime
	}
	if override.Scheduler.RunTimeout > 0 {
		base.Scheduler.RunTimeout = override.Scheduler.RunTimeout
	}

	if override.News.Endpoint != "" {
		base.News.Endpoint = override.News.Endpoint
	}
	if override.News.APIKey != "" {
		base.News.APIKey = override.News.APIKey
	}
	if override.News.Language != "" {
		base.News.Language = override.News.Language
	}
	if override.News.Timeout > 0 {
		base.News.Timeout = override.News.Timeout
	}

	if override.LLM.Provider != "" {
		base.LLM.Provider = override.LLM.Provider
	}
	if override.LLM.OpenAI.BaseURL != "" {
		base.LLM.OpenAI.BaseURL = override.LLM.OpenAI.BaseURL
	}
	if override.LLM.OpenAI.Model != "" {
		base.LLM.OpenAI.Model = override.LLM.OpenAI.Model
	}
	if override.LLM.OpenAI.APIKey != "" {
		base.LLM.OpenAI.APIKey = override.LLM.OpenAI.APIKey
	}
	if override.LLM.OpenAI.Timeout > 0 {
		base.LLM.OpenAI.Timeout = override.LLM.OpenAI.Timeout
	}
	if override.LLM.Gemini.Model != "" {
		base.LLM.Gemini.Model = override.LLM.Gemini.Model
	}
	if override.LLM.Gemini.APIKey != "" {
		base.LLM.Gemini.APIKey = override.LLM.Gemini.APIKey
	}

	if override.Speech.Endpoint != "" {
		base.Speech.Endpoint = override.Speech.Endpoint
	}
	if override.Speech.APIKey != "" {
		base.Speech.APIKey = override.Speech.APIKey
	}
	if override.Speech.OutputFormat != "" {
		base.Speech.OutputFormat = override.Speech.OutputFormat
	}
	if override.Speech.DefaultVoice != "" {
		base.Speech.DefaultVoice = override.Speech.DefaultVoice
	}
	if override.Speech.Timeout > 0 {
		base.Speech.Timeout = override.Speech.Timeout
	}
	for alias, id := range override.Speech.Voices {
		if base.Speech.Voices == nil {
			base.Speech.Voices = map[string]string{}
		}
		base.Speech.Voices[alias] = id
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Server:  ServerConfig{Addr: ":8000", AudioDir: "generated_audio"},
		Scheduler: SchedulerConfig{
			Timezone:    defaultTimezone,
			DefaultTime: "07:00",
			RunTimeout:  15 * time.Minute,
			location:    time.Local,
		},
		News: NewsConfig{
			Endpoint: "https://newsapi.org/v2/everything",
			Language: "en",
			Timeout:  20 * time.Second,
		},
		LLM: LLMConfig{
			Provider: "openai",
			OpenAI: OpenAIConfig{
				BaseURL: "https://api.openai.com/v1",
				Model:   "gpt-4o-mini",
				Timeout: 2 * time.Minute,
			},
			Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
		},
		Speech: SpeechConfig{
			Endpoint:     "https://api.elevenlabs.io",
			OutputFormat: "mp3_44100_128",
			DefaultVoice: "Rachel",
			Voices: map[string]string{
				"Rachel": "21m00Tcm4TlvDq8ikWAM",
			},
			Timeout: 5 * time.Minute,
		},
	}
}
