package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Media     MediaConfig     `mapstructure:"media"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Knowledge KnowledgeConfig `mapstructure:"knowledge"`
	Chat      ChatConfig      `mapstructure:"chat"`
	Prompt    PromptConfig    `mapstructure:"prompt"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
	MaxUploadMB       int64         `mapstructure:"max_upload_mb"`
}

type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
	// ServerlessEnv names the env var that switches DataDir to a temp path
	ServerlessEnv string             `mapstructure:"serverless_env"`
	Media         MediaStorageConfig `mapstructure:"media"`
}

type MediaStorageConfig struct {
	Backend   string      `mapstructure:"backend"`
	LocalDir  string      `mapstructure:"local_dir"`
	PublicURL string      `mapstructure:"public_url"`
	MinIO     MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	PublicURL string `mapstructure:"public_url"`
}

type MediaConfig struct {
	Frames      int    `mapstructure:"frames"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
	Workers     int    `mapstructure:"workers"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
	FFprobePath string `mapstructure:"ffprobe_path"`
}

type LLMConfig struct {
	DefaultProvider   string             `mapstructure:"default_provider"`
	EmbeddingProvider string             `mapstructure:"embedding_provider"`
	Timeout           time.Duration      `mapstructure:"timeout"`
	Qwen              OpenAICompatConfig `mapstructure:"qwen"`
	OpenAI            OpenAICompatConfig `mapstructure:"openai"`
	DeepSeek          OpenAICompatConfig `mapstructure:"deepseek"`
	Anthropic         AnthropicConfig    `mapstructure:"anthropic"`
	Gemini            GeminiConfig       `mapstructure:"gemini"`
	Ollama            OllamaConfig       `mapstructure:"ollama"`
}

// OpenAICompatConfig configures any provider speaking the chat completions API
type OpenAICompatConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	VideoModel     string `mapstructure:"video_model"`
	VisionModel    string `mapstructure:"vision_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type AnthropicConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	MaxTokens int64  `mapstructure:"max_tokens"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type OllamaConfig struct {
	Host           string `mapstructure:"host"`
	DefaultModel   string `mapstructure:"default_model"`
	VisionModel    string `mapstructure:"vision_model"`
	EmbeddingModel string `mapstructure:"embedding_model"`
}

type KnowledgeConfig struct {
	TopK             int           `mapstructure:"top_k"`
	ChatTopK         int           `mapstructure:"chat_top_k"`
	DefaultReviewer  string        `mapstructure:"default_reviewer"`
	EmbeddingTimeout time.Duration `mapstructure:"embedding_timeout"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
}

type ChatConfig struct {
	ExtractionEnabled bool   `mapstructure:"extraction_enabled"`
	GreetingEnabled   bool   `mapstructure:"greeting_enabled"`
	GreetingCity      string `mapstructure:"greeting_city"`
	HistoryLimit      int    `mapstructure:"history_limit"`
	Timezone          string `mapstructure:"timezone"`
}

type PromptConfig struct {
	VocabularyFile string `mapstructure:"vocabulary_file"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ReviewerTTL     time.Duration `mapstructure:"reviewer_ttl"`
	RequireReviewer bool          `mapstructure:"require_reviewer"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// SetConfigFile reports a missing file as a path error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Storage.DataDir = resolveDataDir(cfg.Storage)

	return &cfg, nil
}

// resolveDataDir switches to a writable temp location on serverless hosts
func resolveDataDir(c StorageConfig) string {
	if c.ServerlessEnv != "" && os.Getenv(c.ServerlessEnv) != "" {
		return filepath.Join(os.TempDir(), "lssq_data")
	}
	return c.DataDir
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.read_timeout", "60s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.middleware_timeout", "280s")
	v.SetDefault("server.max_upload_mb", 200)

	// Storage
	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.serverless_env", "VERCEL")
	v.SetDefault("storage.media.backend", "local")
	v.SetDefault("storage.media.local_dir", "./data/uploads")
	v.SetDefault("storage.media.public_url", "/uploads")
	v.SetDefault("storage.media.minio.bucket", "coach-media")

	// Media
	v.SetDefault("media.frames", 10)
	v.SetDefault("media.width", 640)
	v.SetDefault("media.height", 360)
	v.SetDefault("media.jpeg_quality", 85)
	v.SetDefault("media.workers", 4)
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
	v.SetDefault("media.ffprobe_path", "ffprobe")

	// LLM
	v.SetDefault("llm.default_provider", "qwen")
	v.SetDefault("llm.embedding_provider", "qwen")
	v.SetDefault("llm.timeout", "180s")
	v.SetDefault("llm.qwen.base_url", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("llm.qwen.model", "qwen-flash-character")
	v.SetDefault("llm.qwen.video_model", "qwen-omni-turbo")
	v.SetDefault("llm.qwen.vision_model", "qwen-vl-plus")
	v.SetDefault("llm.qwen.embedding_model", "text-embedding-v3")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.openai.embedding_model", "text-embedding-3-small")
	v.SetDefault("llm.deepseek.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.deepseek.model", "deepseek-chat")
	v.SetDefault("llm.anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("llm.anthropic.max_tokens", 4096)
	v.SetDefault("llm.gemini.model", "gemini-2.5-flash")
	v.SetDefault("llm.gemini.embedding_model", "text-embedding-004")
	v.SetDefault("llm.ollama.default_model", "qwen2.5:7b")
	v.SetDefault("llm.ollama.vision_model", "llava")
	v.SetDefault("llm.ollama.embedding_model", "nomic-embed-text")

	// Knowledge
	v.SetDefault("knowledge.top_k", 3)
	v.SetDefault("knowledge.chat_top_k", 2)
	v.SetDefault("knowledge.default_reviewer", "Admin")
	v.SetDefault("knowledge.embedding_timeout", "20s")
	v.SetDefault("knowledge.cache_ttl", "24h")

	// Chat
	v.SetDefault("chat.extraction_enabled", true)
	v.SetDefault("chat.greeting_enabled", true)
	v.SetDefault("chat.greeting_city", "合肥")
	v.SetDefault("chat.history_limit", 10)
	v.SetDefault("chat.timezone", "Asia/Shanghai")

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Rate limiting
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)

	// Auth
	v.SetDefault("auth.reviewer_ttl", "720h")
	v.SetDefault("auth.require_reviewer", false)

	// CORS
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")

	// Metrics
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "SERVER_PORT")

	// Storage
	v.BindEnv("storage.data_dir", "DATA_DIR")
	v.BindEnv("storage.media.backend", "MEDIA_BACKEND")
	v.BindEnv("storage.media.minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.media.minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.media.minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.media.minio.bucket", "MINIO_BUCKET")

	// Redis
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Auth
	v.BindEnv("auth.jwt_secret", "JWT_SECRET")

	// LLM API Keys
	v.BindEnv("llm.default_provider", "LLM_PROVIDER")
	v.BindEnv("llm.qwen.api_key", "QWEN_API_KEY", "DASHSCOPE_API_KEY")
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")
}
