package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Moderation policy
	ConfidenceThreshold float64
	ForbiddenCategories map[int]bool
	CategoryLabels      map[int]string

	// Video processing
	TargetFrameRate  float64
	MaxVideoDuration time.Duration
	FFmpegPath       string
	FFprobePath      string

	// Detection backend: "remote" or "vision"
	DetectorBackend string
	InferenceURL    string

	// Storage backend: "s3" or "azure"
	StorageBackend   string
	AWSRegion        string
	S3Endpoint       string
	AWSAccessKey     string
	AWSSecretKey     string
	InputBucket      string
	QuarantineBucket string
	AzureAccountName string
	AzureAccountKey  string

	// Notification backend: "ses" or "log"
	NotifierBackend string
	AlertSender     string
	AlertRecipient  string

	// Event trigger
	QueueURL    string
	WorkerCount int

	// Optional verdict cache
	RedisAddr     string
	RedisPassword string
	CacheTTL      time.Duration
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	// Best effort: local runs keep settings in a .env file
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 50*1024*1024), // 50MB, videos included

		ConfidenceThreshold: parseFloatOrDefault("CONFIDENCE_THRESHOLD", 0.5),
		TargetFrameRate:     parseFloatOrDefault("TARGET_FRAME_RATE", 1),
		MaxVideoDuration:    parseDurationOrDefault("MAX_VIDEO_DURATION", 300*time.Second),
		FFmpegPath:          getEnvOrDefault("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:         getEnvOrDefault("FFPROBE_PATH", "ffprobe"),

		DetectorBackend: getEnvOrDefault("DETECTOR_BACKEND", "remote"),
		InferenceURL:    getEnvOrDefault("INFERENCE_URL", "http://127.0.0.1:8000/predict"),

		StorageBackend:   getEnvOrDefault("STORAGE_BACKEND", "s3"),
		AWSRegion:        getEnvOrDefault("AWS_REGION", "us-east-1"),
		S3Endpoint:       os.Getenv("S3_ENDPOINT"),
		AWSAccessKey:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:     os.Getenv("AWS_SECRET_ACCESS_KEY"),
		InputBucket:      os.Getenv("S3_INPUT_BUCKET"),
		QuarantineBucket: os.Getenv("S3_QUARANTINE_BUCKET"),
		AzureAccountName: os.Getenv("AZURE_ACCOUNT_NAME"),
		AzureAccountKey:  os.Getenv("AZURE_ACCOUNT_KEY"),

		NotifierBackend: getEnvOrDefault("NOTIFIER_BACKEND", "log"),
		AlertSender:     os.Getenv("ALERT_SENDER_EMAIL"),
		AlertRecipient:  os.Getenv("ALERT_RECIPIENT_EMAIL"),

		QueueURL:    os.Getenv("SQS_QUEUE_URL"),
		WorkerCount: int(parseIntOrDefault("WORKER_COUNT", 4)),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CacheTTL:      parseDurationOrDefault("CACHE_TTL", 1*time.Hour),
	}

	var err error
	cfg.ForbiddenCategories, err = parseCategorySet(getEnvOrDefault("FORBIDDEN_CATEGORIES", "0,2,3"))
	if err != nil {
		return nil, fmt.Errorf("invalid FORBIDDEN_CATEGORIES: %w", err)
	}
	cfg.CategoryLabels, err = parseLabelTable(getEnvOrDefault("CATEGORY_LABELS", "0:knife,1:normal,2:violence,3:weapons"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATEGORY_LABELS: %w", err)
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.AnalysisTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)",
			cfg.RequestTimeout, cfg.AnalysisTimeout)
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		return nil, fmt.Errorf("CONFIDENCE_THRESHOLD must be in [0,1] (got %g)", cfg.ConfidenceThreshold)
	}
	if cfg.TargetFrameRate <= 0 {
		return nil, fmt.Errorf("TARGET_FRAME_RATE must be > 0 (got %g)", cfg.TargetFrameRate)
	}
	if cfg.MaxVideoDuration <= 0 {
		return nil, fmt.Errorf("MAX_VIDEO_DURATION must be > 0 (got %s)", cfg.MaxVideoDuration)
	}
	if cfg.WorkerCount <= 0 {
		return nil, fmt.Errorf("WORKER_COUNT must be > 0 (got %d)", cfg.WorkerCount)
	}
	return cfg, nil
}

// parseCategorySet parses a comma separated list of category ids, e.g. "0,2,3".
func parseCategorySet(value string) (map[int]bool, error) {
	set := make(map[int]bool)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("category id %q is not an integer", part)
		}
		set[id] = true
	}
	return set, nil
}

// parseLabelTable parses "id:name" pairs, e.g. "0:knife,1:normal".
func parseLabelTable(value string) (map[int]string, error) {
	table := make(map[int]string)
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, name, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("label entry %q is not id:name", part)
		}
		code, err := strconv.Atoi(strings.TrimSpace(id))
		if err != nil {
			return nil, fmt.Errorf("label id %q is not an integer", id)
		}
		table[code] = strings.TrimSpace(name)
	}
	return table, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
