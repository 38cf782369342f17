package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Storage   StorageConfig   `mapstructure:"storage"`
	AI        AIConfig        `mapstructure:"ai"`
	AMQP      AMQPConfig      `mapstructure:"amqp"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    string `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql / postgres / sqlite
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	Charset  string `mapstructure:"charset"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret      string        `mapstructure:"secret"`
	ExpireHours int           `mapstructure:"expire_hours"`
	ExpireTime  time.Duration `mapstructure:"-"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Driver            string        `mapstructure:"driver"` // redis / memory
	Addr              string        `mapstructure:"addr"`
	Password          string        `mapstructure:"password"`
	DB                int           `mapstructure:"db"`
	SummaryTTLSeconds int           `mapstructure:"summary_ttl_seconds"`
	MaxEntries        int           `mapstructure:"max_entries"`
	SummaryTTL        time.Duration `mapstructure:"-"`
}

// StorageConfig 附件存储配置
type StorageConfig struct {
	Driver          string `mapstructure:"driver"` // local / gcs
	LocalDir        string `mapstructure:"local_dir"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// AIConfig OCR / 语音识别模型配置
type AIConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// AMQPConfig 附件清理队列配置，url 为空时不启用
type AMQPConfig struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text / json
}

// RateLimitConfig 上传识别接口限流配置
type RateLimitConfig struct {
	IngestMax           int           `mapstructure:"ingest_max"`
	IngestWindowSeconds int           `mapstructure:"ingest_window_seconds"`
	IngestWindow        time.Duration `mapstructure:"-"`
}

var (
	// GlobalConfig 全局配置实例
	GlobalConfig *Config
)

// LoadConfig 加载配置
// 优先级: 环境变量 > 外部配置文件 > 嵌入的默认配置
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. 首先加载嵌入的默认配置
	if err := v.ReadConfig(bytes.NewReader(DefaultConfigYAML)); err != nil {
		return nil, fmt.Errorf("读取内置配置失败: %w", err)
	}

	// 2. 尝试加载外部配置文件（可选，用于覆盖默认配置）
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			slog.Warn("无法读取指定配置文件", "path", configPath, "error", err)
		} else {
			slog.Info("已合并外部配置文件", "path", configPath)
		}
	} else {
		externalViper := viper.New()
		externalViper.SetConfigName("config")
		externalViper.SetConfigType("yaml")
		externalViper.AddConfigPath(".")
		externalViper.AddConfigPath("./config")
		externalViper.AddConfigPath("/etc/spendwise")
		externalViper.AddConfigPath("$HOME/.spendwise")

		if err := externalViper.ReadInConfig(); err == nil {
			if err := v.MergeConfigMap(externalViper.AllSettings()); err != nil {
				slog.Warn("合并外部配置失败", "error", err)
			} else {
				slog.Info("已合并外部配置文件", "path", externalViper.ConfigFileUsed())
			}
		}
	}

	// 3. 环境变量覆盖，如 SPENDWISE_DATABASE_DRIVER=sqlite
	v.SetEnvPrefix("SPENDWISE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	GlobalConfig = &cfg
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.JWT.ExpireHours <= 0 {
		c.JWT.ExpireHours = 24
	}
	c.JWT.ExpireTime = time.Duration(c.JWT.ExpireHours) * time.Hour

	if c.Cache.SummaryTTLSeconds <= 0 {
		c.Cache.SummaryTTLSeconds = 300
	}
	c.Cache.SummaryTTL = time.Duration(c.Cache.SummaryTTLSeconds) * time.Second
	if c.Cache.MaxEntries <= 0 {
		c.Cache.MaxEntries = 10000
	}

	if c.RateLimit.IngestMax <= 0 {
		c.RateLimit.IngestMax = 20
	}
	if c.RateLimit.IngestWindowSeconds <= 0 {
		c.RateLimit.IngestWindowSeconds = 60
	}
	c.RateLimit.IngestWindow = time.Duration(c.RateLimit.IngestWindowSeconds) * time.Second

	if c.Server.Port != "" && !strings.HasPrefix(c.Server.Port, ":") {
		c.Server.Port = ":" + c.Server.Port
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	var errs []string

	switch c.Database.Driver {
	case "mysql", "postgres":
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path 不能为空（sqlite）")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver 无效: %q，可选 mysql/postgres/sqlite", c.Database.Driver))
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.Addr == "" {
			errs = append(errs, "cache.addr 不能为空（redis）")
		}
	default:
		errs = append(errs, fmt.Sprintf("cache.driver 无效: %q，可选 redis/memory", c.Cache.Driver))
	}

	switch c.Storage.Driver {
	case "local":
		if c.Storage.LocalDir == "" {
			errs = append(errs, "storage.local_dir 不能为空（local）")
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			errs = append(errs, "storage.bucket 不能为空（gcs）")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.driver 无效: %q，可选 local/gcs", c.Storage.Driver))
	}

	if c.JWT.Secret == "" {
		errs = append(errs, "jwt.secret 不能为空")
	}

	if len(errs) > 0 {
		return fmt.Errorf("配置校验失败: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PrintConfig 打印当前配置（隐藏敏感信息）
func PrintConfig() {
	if GlobalConfig == nil {
		return
	}
	cfg := GlobalConfig
	slog.Info("当前配置",
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"db_driver", cfg.Database.Driver,
		"db", fmt.Sprintf("%s@%s:%s/%s", cfg.Database.Username, cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName),
		"cache", cfg.Cache.Driver,
		"storage", cfg.Storage.Driver,
		"ai_enabled", cfg.AI.APIKey != "",
		"amqp_enabled", cfg.AMQP.URL != "",
	)
}
