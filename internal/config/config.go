package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv     = "TUBESCRIBE_CONFIG"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	deepSeekAPIKeyEnv = "DEEPSEEK_API_KEY"
	databaseDSNEnv    = "DATABASE_DSN"
	redisAddrEnv      = "REDIS_ADDR"
	listenAddrEnv     = "TUBESCRIBE_ADDR"
)

// Backend names accepted by the routing fields below.
const (
	BackendOpenAI   = "openai"
	BackendDeepSeek = "deepseek"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Generation GenerationConfig `yaml:"generation"`
	Backends   BackendsConfig   `yaml:"backends"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
	Media      MediaConfig      `yaml:"media"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// LoggingConfig selects log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig selects the job store backend and its retention window.
type StoreConfig struct {
	// Backend is "memory" or "redis".
	Backend          string      `yaml:"backend"`
	RetentionSeconds int         `yaml:"retentionSeconds"`
	Redis            RedisConfig `yaml:"redis"`
}

// Retention resolves the configured record lifetime.
func (s StoreConfig) Retention() time.Duration {
	if s.RetentionSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(s.RetentionSeconds) * time.Second
}

// RedisConfig describes the Redis connection for the redis job store.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DatabaseConfig describes the optional Postgres article archive.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// GenerationConfig carries article structural bounds and the retry budget.
// MaxWords defaults to 1500; deployments that want the relaxed historical
// bound set it to 2000 here rather than patching code.
type GenerationConfig struct {
	MinWords        int    `yaml:"minWords"`
	MaxWords        int    `yaml:"maxWords"`
	RetryBudget     int    `yaml:"retryBudget"`
	OutputDirectory string `yaml:"outputDirectory"`
}

// BackendConfig describes one OpenAI-compatible chat endpoint.
type BackendConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	// ScoreScale is the top of the backend's native relevance scale
	// (5 for the DeepSeek-style prompt, 100 for the OpenAI-style variant).
	ScoreScale float64 `yaml:"scoreScale"`
}

// BackendsConfig routes pipeline roles onto concrete backends. The original
// system split roles across providers in at least three divergent ways;
// routing is configuration here, not code.
type BackendsConfig struct {
	OpenAI   BackendConfig `yaml:"openai"`
	DeepSeek BackendConfig `yaml:"deepseek"`
	Scorer   string        `yaml:"scorer"`
	Writer   string        `yaml:"writer"`
	Reviewer string        `yaml:"reviewer"`
}

// TimeoutConfig sets the orchestrator's outer ceiling per stage so a hung
// collaborator cannot block a job indefinitely.
type TimeoutConfig struct {
	SearchSeconds     int `yaml:"searchSeconds"`
	DownloadSeconds   int `yaml:"downloadSeconds"`
	ExtractSeconds    int `yaml:"extractSeconds"`
	TranscribeSeconds int `yaml:"transcribeSeconds"`
	GenerateSeconds   int `yaml:"generateSeconds"`
}

// Search returns the search-stage ceiling.
func (t TimeoutConfig) Search() time.Duration { return secondsOr(t.SearchSeconds, 5*time.Minute) }

// Download returns the download-stage ceiling.
func (t TimeoutConfig) Download() time.Duration { return secondsOr(t.DownloadSeconds, 5*time.Minute) }

// Extract returns the audio-extraction ceiling.
func (t TimeoutConfig) Extract() time.Duration { return secondsOr(t.ExtractSeconds, 3*time.Minute) }

// Transcribe returns the transcription ceiling.
func (t TimeoutConfig) Transcribe() time.Duration {
	return secondsOr(t.TranscribeSeconds, 10*time.Minute)
}

// Generate returns the ceiling for draft and refine stages.
func (t TimeoutConfig) Generate() time.Duration { return secondsOr(t.GenerateSeconds, 5*time.Minute) }

func secondsOr(v int, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return time.Duration(v) * time.Second
}

// MediaConfig locates the external media binaries and scratch space.
type MediaConfig struct {
	DownloadDir string `yaml:"downloadDir"`
	YtDlpPath   string `yaml:"ytDlpPath"`
	FfmpegPath  string `yaml:"ffmpegPath"`
	FfprobePath string `yaml:"ffprobePath"`
	MaxAudioMB  int    `yaml:"maxAudioMb"`
}

// TranscribeConfig describes the Whisper-style transcription endpoint.
type TranscribeConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
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
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.Backends.OpenAI.APIKey = v
		if c.Transcribe.APIKey == "" {
			c.Transcribe.APIKey = v
		}
	}

	if v := os.Getenv(deepSeekAPIKeyEnv); v != "" {
		c.Backends.DeepSeek.APIKey = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Store.Redis.Addr = v
		if c.Store.Backend == "" {
			c.Store.Backend = "redis"
		}
	}

	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Address = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Address != "" {
		base.Server.Address = override.Server.Address
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Store.Backend != "" {
		base.Store.Backend = override.Store.Backend
	}
	if override.Store.RetentionSeconds > 0 {
		base.Store.RetentionSeconds = override.Store.RetentionSeconds
	}
	if override.Store.Redis.Addr != "" {
		base.Store.Redis = override.Store.Redis
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Generation.MinWords > 0 {
		base.Generation.MinWords = override.Generation.MinWords
	}
	if override.Generation.MaxWords > 0 {
		base.Generation.MaxWords = override.Generation.MaxWords
	}
	if override.Generation.RetryBudget > 0 {
		base.Generation.RetryBudget = override.Generation.RetryBudget
	}
	if override.Generation.OutputDirectory != "" {
		base.Generation.OutputDirectory = override.Generation.OutputDirectory
	}

	base.Backends = mergeBackends(base.Backends, override.Backends)

	if override.Timeouts.SearchSeconds > 0 {
		base.Timeouts.SearchSeconds = override.Timeouts.SearchSeconds
	}
	if override.Timeouts.DownloadSeconds > 0 {
		base.Timeouts.DownloadSeconds = override.Timeouts.DownloadSeconds
	}
	if override.Timeouts.ExtractSeconds > 0 {
		base.Timeouts.ExtractSeconds = override.Timeouts.ExtractSeconds
	}
	if override.Timeouts.TranscribeSeconds > 0 {
		base.Timeouts.TranscribeSeconds = override.Timeouts.TranscribeSeconds
	}
	if override.Timeouts.GenerateSeconds > 0 {
		base.Timeouts.GenerateSeconds = override.Timeouts.GenerateSeconds
	}

	if override.Media.DownloadDir != "" {
		base.Media.DownloadDir = override.Media.DownloadDir
	}
	if override.Media.YtDlpPath != "" {
		base.Media.YtDlpPath = override.Media.YtDlpPath
	}
	if override.Media.FfmpegPath != "" {
		base.Media.FfmpegPath = override.Media.FfmpegPath
	}
	if override.Media.FfprobePath != "" {
		base.Media.FfprobePath = override.Media.FfprobePath
	}
	if override.Media.MaxAudioMB > 0 {
		base.Media.MaxAudioMB = override.Media.MaxAudioMB
	}

	if override.Transcribe.Endpoint != "" {
		base.Transcribe.Endpoint = override.Transcribe.Endpoint
	}
	if override.Transcribe.Model != "" {
		base.Transcribe.Model = override.Transcribe.Model
	}
	if override.Transcribe.APIKey != "" {
		base.Transcribe.APIKey = override.Transcribe.APIKey
	}

	return base
}

func mergeBackends(base, override BackendsConfig) BackendsConfig {
	base.OpenAI = mergeBackend(base.OpenAI, override.OpenAI)
	base.DeepSeek = mergeBackend(base.DeepSeek, override.DeepSeek)

	if override.Scorer != "" {
		base.Scorer = override.Scorer
	}
	if override.Writer != "" {
		base.Writer = override.Writer
	}
	if override.Reviewer != "" {
		base.Reviewer = override.Reviewer
	}

	return base
}

func mergeBackend(base, override BackendConfig) BackendConfig {
	if override.Endpoint != "" {
		base.Endpoint = override.Endpoint
	}
	if override.Model != "" {
		base.Model = override.Model
	}
	if override.APIKey != "" {
		base.APIKey = override.APIKey
	}
	if override.ScoreScale > 0 {
		base.ScoreScale = override.ScoreScale
	}
	return base
}

func defaultConfig() Config {
	return Config{
		Server:  ServerConfig{Address: ":8080"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Store: StoreConfig{
			Backend:          "memory",
			RetentionSeconds: 3600,
			Redis:            RedisConfig{Addr: "localhost:6379"},
		},
		Generation: GenerationConfig{
			MinWords:        1000,
			MaxWords:        1500,
			RetryBudget:     3,
			OutputDirectory: "data/articles",
		},
		Backends: BackendsConfig{
			OpenAI: BackendConfig{
				Endpoint:   "https://api.openai.com/v1/chat/completions",
				Model:      "gpt-4-1106-preview",
				ScoreScale: 100,
			},
			DeepSeek: BackendConfig{
				Endpoint:   "https://api.deepseek.com/v1/chat/completions",
				Model:      "deepseek-chat",
				ScoreScale: 5,
			},
			Scorer:   BackendDeepSeek,
			Writer:   BackendOpenAI,
			Reviewer: BackendDeepSeek,
		},
		Timeouts: TimeoutConfig{
			SearchSeconds:     300,
			DownloadSeconds:   300,
			ExtractSeconds:    180,
			TranscribeSeconds: 600,
			GenerateSeconds:   300,
		},
		Media: MediaConfig{
			DownloadDir: "downloads",
			YtDlpPath:   "yt-dlp",
			FfmpegPath:  "ffmpeg",
			FfprobePath: "ffprobe",
			MaxAudioMB:  24,
		},
		Transcribe: TranscribeConfig{
			Endpoint: "https://api.openai.com/v1/audio/transcriptions",
			Model:    "whisper-1",
		},
	}
}
