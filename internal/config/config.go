package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harulog/backend/internal/model/journal"
)

const (
	defaultLlamaBase    = "http://127.0.0.1:8080"
	defaultLlamaModel   = "local-llama"
	defaultLlamaAPIKey  = "sk-no-key-required"
	defaultTemperature  = 0.7
	defaultMaxTokens    = 256
	defaultLogDirName   = "d_log"
	defaultLogFileName  = "chat_logs.json"
	defaultAppDirectory = "harulog"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Storage  journal.StorageConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	storage, err := LoadStorageConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Upstream: upstream, Storage: storage}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := getEnvOrDefault("PORT", DefaultProxyPort)

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":4000" 或 "127.0.0.1:4000"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// UpstreamConfig 描述 llama-server（OpenAI 兼容接口）的调用参数。
type UpstreamConfig struct {
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float64
	MaxTokens   int
	// Timeout of zero leaves upstream calls bounded only by the request context.
	Timeout time.Duration
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLAMA_TEMPERATURE")
	if err != nil {
		return UpstreamConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLAMA_MAX_TOKENS")
	if err != nil {
		return UpstreamConfig{}, err
	}

	timeoutSeconds, err := parseOptionalIntEnv("LLAMA_TIMEOUT")
	if err != nil {
		return UpstreamConfig{}, err
	}

	cfg := UpstreamConfig{
		BaseURL:     strings.TrimRight(getEnvOrDefault("LLAMA_API_BASE", defaultLlamaBase), "/"),
		Model:       getEnvOrDefault("LLAMA_MODEL", defaultLlamaModel),
		APIKey:      getEnvOrDefault("LLAMA_API_KEY", defaultLlamaAPIKey),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if temperature != nil {
		cfg.Temperature = *temperature
	}
	if maxTokens != nil {
		if *maxTokens < 1 {
			return UpstreamConfig{}, fmt.Errorf("invalid LLAMA_MAX_TOKENS value %d: must be positive", *maxTokens)
		}
		cfg.MaxTokens = *maxTokens
	}
	if timeoutSeconds != nil && *timeoutSeconds > 0 {
		cfg.Timeout = time.Duration(*timeoutSeconds) * time.Second
	}
	return cfg, nil
}

// LoadStorageConfig resolves the journal file location from DIARY_LOG_DIR and
// DIARY_LOG_FILE, defaulting to <user config dir>/harulog/d_log/chat_logs.json.
func LoadStorageConfig() (journal.StorageConfig, error) {
	dir := strings.TrimSpace(os.Getenv("DIARY_LOG_DIR"))
	if dir == "" {
		base, err := DefaultStorageDir()
		if err != nil {
			return journal.StorageConfig{}, err
		}
		dir = base
	}

	return journal.StorageConfig{
		Dir:      dir,
		Filename: getEnvOrDefault("DIARY_LOG_FILE", defaultLogFileName),
	}, nil
}

// DefaultStorageDir returns the per-user journal directory.
func DefaultStorageDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, defaultAppDirectory, defaultLogDirName), nil
}

// DefaultStorageFile is the journal filename used when none is configured.
func DefaultStorageFile() string {
	return defaultLogFileName
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
