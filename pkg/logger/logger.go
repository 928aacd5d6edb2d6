package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init 初始化全局日志
// release 模式输出 JSON，其余模式输出带颜色的控制台日志
func Init(mode string) *zap.Logger {
	var cfg zap.Config
	if mode == "release" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l := zap.Must(cfg.Build())
	zap.ReplaceGlobals(l)
	return l
}

// Sync 刷新缓冲的日志，进程退出前调用
func Sync() {
	_ = zap.L().Sync()
}
