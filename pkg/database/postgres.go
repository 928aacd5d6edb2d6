package database

import (
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"product_importer_v1_202608/pkg/config"
)

// InitDB 初始化数据库连接
// cfg: 连接与连接池配置
// models: 需要自动建表/迁移的结构体指针
func InitDB(cfg *config.DatabaseConfig, models ...interface{}) *gorm.DB {
	dbLogger := logger.Default.LogMode(parseLogLevel(cfg.LogLevel))

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		zap.S().Fatalf("数据库连接失败: %v", err)
	}

	// 获取底层的 sqlDB 对象，用于设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		zap.S().Fatalf("获取底层 SQL DB 失败: %v", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	zap.S().Info("数据库连接成功")

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			zap.S().Fatalf("自动建表出错: %v", err)
		}
	}

	return db
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	default:
		return logger.Info
	}
}
