package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ==================== 配置结构 ====================

// Config 应用全局配置
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Import   ImportConfig   `mapstructure:"import"`
	Webhook  WebhookConfig  `mapstructure:"webhook"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"` // silent / error / warn / info
}

// ImportConfig CSV 导入配置
type ImportConfig struct {
	// 单批 upsert 的行数，依据数据库性能调整
	BatchSize int    `mapstructure:"batch_size"`
	UploadDir string `mapstructure:"upload_dir"`
	QueueSize int    `mapstructure:"queue_size"`
	Workers   int    `mapstructure:"workers"`
	// 待处理任务的兜底扫描周期（cron 表达式，带秒）
	RescanSpec string `mapstructure:"rescan_spec"`
}

// WebhookConfig Webhook 投递配置
type WebhookConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	QueueSize int           `mapstructure:"queue_size"`
	Workers   int           `mapstructure:"workers"`
}

// ==================== 加载 ====================

// Load 加载配置
// 优先级：环境变量 > config.yaml > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可以不存在，全部走默认值 + 环境变量
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.dsn",
		"host=localhost user=postgres password=postgres dbname=product_importer port=5432 sslmode=disable TimeZone=Asia/Shanghai")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "info")

	v.SetDefault("import.batch_size", 5000)
	v.SetDefault("import.upload_dir", "data/imports")
	v.SetDefault("import.queue_size", 64)
	v.SetDefault("import.workers", 2)
	v.SetDefault("import.rescan_spec", "0 * * * * *")

	v.SetDefault("webhook.timeout", "5s")
	v.SetDefault("webhook.queue_size", 256)
	v.SetDefault("webhook.workers", 4)
}
