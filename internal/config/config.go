package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/SaratA8717/Botbuilder-samples/internal/boterror"
)

// 存储后端名称。
const (
	StorageMemory   = "memory"
	StorageBolt     = "bolt"
	StorageDynamoDB = "dynamodb"
)

// DefaultPort 是 Bot Framework 示例约定的监听端口。
const DefaultPort = "3978"

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Bot       BotConfig
	Storage   StorageConfig
	Telemetry TelemetryConfig
	Log       LogConfig
}

// Load 从环境变量加载配置。任何非法取值都以 ConfigurationError 返回。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, configError("server", err)
	}

	storage, err := loadStorageConfig()
	if err != nil {
		return nil, configError("storage", err)
	}

	telemetry, err := loadTelemetryConfig()
	if err != nil {
		return nil, configError("telemetry", err)
	}

	return &Config{
		Server:    server,
		Bot:       loadBotConfig(),
		Storage:   storage,
		Telemetry: telemetry,
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}, nil
}

func configError(reason string, err error) error {
	return boterror.New(boterror.ConfigurationError, reason, err)
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = strings.TrimSpace(os.Getenv("port"))
	}
	if port == "" {
		port = DefaultPort
	}

	if strings.Contains(port, ":") {
		// 允许直接传入 ":3978" 或 "127.0.0.1:3978"。
		return ServerConfig{Addr: port}, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// BotConfig 描述机器人身份与 .bot 文件位置。
type BotConfig struct {
	AppID       string
	AppPassword string
	// AppPasswordParam 是保存应用密码的 SSM 参数名，AppPassword 为空时使用。
	AppPasswordParam string
	BotFilePath      string
	BotFileSecret    string
}

func loadBotConfig() BotConfig {
	appID := strings.TrimSpace(os.Getenv("MicrosoftAppId"))
	if appID == "" {
		appID = strings.TrimSpace(os.Getenv("MicrosoftAppID"))
	}
	return BotConfig{
		AppID:            appID,
		AppPassword:      strings.TrimSpace(os.Getenv("MicrosoftAppPassword")),
		AppPasswordParam: strings.TrimSpace(os.Getenv("MicrosoftAppPasswordParam")),
		BotFilePath:      strings.TrimSpace(os.Getenv("botFilePath")),
		BotFileSecret:    strings.TrimSpace(os.Getenv("botFileSecret")),
	}
}

// RequireBotFile 校验 .bot 文件路径已配置。
func (c BotConfig) RequireBotFile() error {
	if c.BotFilePath == "" {
		return configError("bot_file_path_missing", fmt.Errorf("botFilePath is required"))
	}
	return nil
}

// StorageConfig 描述状态存储后端。
type StorageConfig struct {
	Backend string
	// Path 是 bolt 数据库文件路径。
	Path string
	// Table 是 DynamoDB 表名。
	Table string
}

func loadStorageConfig() (StorageConfig, error) {
	backend := strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", StorageMemory))
	cfg := StorageConfig{
		Backend: backend,
		Path:    getEnvOrDefault("STORAGE_PATH", "bot-state.db"),
		Table:   strings.TrimSpace(os.Getenv("STORAGE_TABLE")),
	}

	switch backend {
	case StorageMemory, StorageBolt:
	case StorageDynamoDB:
		if cfg.Table == "" {
			return StorageConfig{}, fmt.Errorf("STORAGE_TABLE is required for the %s backend", backend)
		}
	default:
		return StorageConfig{}, fmt.Errorf("invalid STORAGE_BACKEND value: %q", backend)
	}
	return cfg, nil
}

// TelemetryConfig 描述遥测配置。
type TelemetryConfig struct {
	InstrumentationKey string
	MQTTBroker         string
	MQTTTopic          string
	MQTTQoS            byte
	LogOriginalMessage bool
	LogUserName        bool
}

func loadTelemetryConfig() (TelemetryConfig, error) {
	logOriginal, err := parseBoolEnv("TELEMETRY_LOG_ORIGINAL_MESSAGE", true)
	if err != nil {
		return TelemetryConfig{}, err
	}

	logUserName, err := parseBoolEnv("TELEMETRY_LOG_USER_NAME", true)
	if err != nil {
		return TelemetryConfig{}, err
	}

	qos := byte(0)
	if override, err := parseOptionalIntEnv("TELEMETRY_MQTT_QOS"); err != nil {
		return TelemetryConfig{}, err
	} else if override != nil {
		if *override < 0 || *override > 2 {
			return TelemetryConfig{}, fmt.Errorf("invalid TELEMETRY_MQTT_QOS value: %d", *override)
		}
		qos = byte(*override)
	}

	return TelemetryConfig{
		InstrumentationKey: strings.TrimSpace(os.Getenv("TELEMETRY_INSTRUMENTATION_KEY")),
		MQTTBroker:         strings.TrimSpace(os.Getenv("TELEMETRY_MQTT_BROKER")),
		MQTTTopic:          getEnvOrDefault("TELEMETRY_MQTT_TOPIC", "bots/telemetry"),
		MQTTQoS:            qos,
		LogOriginalMessage: logOriginal,
		LogUserName:        logUserName,
	}, nil
}

// RequireInstrumentationKey 校验遥测密钥已配置。
func (c TelemetryConfig) RequireInstrumentationKey() error {
	if c.InstrumentationKey == "" {
		return configError("instrumentation_key_missing", fmt.Errorf("TELEMETRY_INSTRUMENTATION_KEY is required"))
	}
	return nil
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
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
