package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DownloaderYtDlp  = "yt-dlp"
	DownloaderNative = "native"

	TranscriberWhisper = "whisper"
	TranscriberScript  = "script"
)

type Config struct {
	// Server settings
	ServerPort      string        `json:"server_port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Debug           bool          `json:"debug"`
	Version         string        `json:"version"`

	// Application paths
	LogDir   string `json:"log_dir"`
	LogLevel string `json:"log_level"`
	TempDir  string `json:"temp_dir"`

	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`
	Database  DatabaseConfig  `json:"database"`
	Media     MediaConfig     `json:"media"`
	GenAI     GenAIConfig     `json:"genai"`
	Whisper   WhisperConfig   `json:"whisper"`
	Archive   ArchiveConfig   `json:"archive"`
}

type CORSConfig struct {
	Enabled          bool     `json:"enabled"`
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `json:"enabled"`
	RequestsPerMinute int  `json:"requests_per_minute"`
	BurstSize         int  `json:"burst_size"`
}

// DatabaseConfig configures the job journal. An empty Path disables it.
type DatabaseConfig struct {
	Path           string `json:"path"`
	MaxConnections int    `json:"max_connections"`
}

type MediaConfig struct {
	Downloader     string        `json:"downloader"`
	YtDlpPath      string        `json:"ytdlp_path"`
	FFmpegPath     string        `json:"ffmpeg_path"`
	AudioQuality   string        `json:"audio_quality"`
	ProcessTimeout time.Duration `json:"process_timeout"`
}

type GenAIConfig struct {
	APIKey string `json:"-"`
	Model  string `json:"model"`
}

type WhisperConfig struct {
	Backend     string        `json:"backend"`
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"-"`
	Model       string        `json:"model"`
	PythonPath  string        `json:"python_path"`
	ScriptsPath string        `json:"scripts_path"`
	Timeout     time.Duration `json:"timeout"`
}

// ArchiveConfig configures the S3 result archive. An empty Bucket disables it.
type ArchiveConfig struct {
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
}

// Load reads configuration from the environment, after merging a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8000"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 30*time.Minute),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Debug:           getEnvAsBool("DEBUG", false),
		Version:         getEnv("VERSION", "1.0.0"),

		LogDir:   getEnv("LOG_DIR", ""),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		TempDir:  getEnv("TEMP_DIR", os.TempDir()),

		CORS: CORSConfig{
			Enabled:          getEnvAsBool("CORS_ENABLED", true),
			AllowedOrigins:   getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvAsStringSlice("CORS_ALLOWED_METHODS", []string{"*"}),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"*"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled:           getEnvAsBool("RATE_LIMIT_ENABLED", false),
			RequestsPerMinute: getEnvAsInt("RATE_LIMIT_RPM", 60),
			BurstSize:         getEnvAsInt("RATE_LIMIT_BURST", 10),
		},

		Database: DatabaseConfig{
			Path:           getEnv("DB_PATH", "./data/jobs.db"),
			MaxConnections: getEnvAsInt("DB_MAX_CONNECTIONS", 10),
		},

		Media: MediaConfig{
			Downloader:     getEnv("DOWNLOADER", DownloaderYtDlp),
			YtDlpPath:      getEnv("YTDLP_PATH", "yt-dlp"),
			FFmpegPath:     getEnv("FFMPEG_PATH", "ffmpeg"),
			AudioQuality:   getEnv("AUDIO_QUALITY", "192"),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 0),
		},

		GenAI: GenAIConfig{
			APIKey: getEnv("GENAI_API_KEY", ""),
			Model:  getEnv("GENAI_MODEL", "gemini-1.5-flash-latest"),
		},

		Whisper: WhisperConfig{
			Backend:     getEnv("TRANSCRIBER", TranscriberWhisper),
			BaseURL:     getEnv("WHISPER_BASE_URL", "http://localhost:9000/v1"),
			APIKey:      getEnv("WHISPER_API_KEY", ""),
			Model:       getEnv("WHISPER_MODEL", "base"),
			PythonPath:  getEnv("PYTHON_PATH", "python3"),
			ScriptsPath: getEnv("SCRIPTS_PATH", "./scripts/python"),
			Timeout:     getEnvAsDuration("WHISPER_TIMEOUT", 0),
		},

		Archive: ArchiveConfig{
			Bucket:    getEnv("ARCHIVE_BUCKET", ""),
			Region:    getEnv("ARCHIVE_REGION", "us-east-1"),
			Endpoint:  getEnv("ARCHIVE_ENDPOINT", ""),
			AccessKey: getEnv("ARCHIVE_ACCESS_KEY", ""),
			SecretKey: getEnv("ARCHIVE_SECRET_KEY", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validatePaths(c); err != nil {
		return err
	}

	if err := validateTimeouts(c); err != nil {
		return err
	}

	return validateServices(c)
}

// RequireGenAI reports a configuration error when the generative model
// cannot be reached. Commands that mount the blog service call it at startup.
func (c *Config) RequireGenAI() error {
	if c.GenAI.APIKey == "" {
		return errors.New("GENAI_API_KEY environment variable not set")
	}
	return nil
}

func validatePaths(c *Config) error {
	paths := []struct {
		path string
		name string
	}{
		{c.TempDir, "temp directory"},
	}
	if c.LogDir != "" {
		paths = append(paths, struct {
			path string
			name string
		}{c.LogDir, "log directory"})
	}
	if c.Database.Path != "" {
		paths = append(paths, struct {
			path string
			name string
		}{filepath.Dir(c.Database.Path), "database directory"})
	}

	for _, p := range paths {
		if err := os.MkdirAll(p.path, 0755); err != nil {
			return errors.Wrapf(err, "failed to create %s", p.name)
		}
	}

	return nil
}

func validateTimeouts(c *Config) error {
	if c.ReadTimeout <= 0 {
		return errors.New("read timeout must be positive")
	}
	if c.WriteTimeout <= 0 {
		return errors.New("write timeout must be positive")
	}
	if c.Media.ProcessTimeout < 0 {
		return errors.New("process timeout must not be negative")
	}
	return nil
}

func validateServices(c *Config) error {
	if c.ServerPort == "" {
		return errors.New("server port is required")
	}

	switch c.Media.Downloader {
	case DownloaderYtDlp, DownloaderNative:
	default:
		return errors.Errorf("unknown downloader %q", c.Media.Downloader)
	}

	switch c.Whisper.Backend {
	case TranscriberWhisper, TranscriberScript:
	default:
		return errors.Errorf("unknown transcriber %q", c.Whisper.Backend)
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return errors.New("rate limit must be positive when enabled")
	}

	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return defaultValue
}
