// Package logger 封装 zap，提供按模块命名的日志记录器
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger 日志记录器
type Logger struct {
	sugar *zap.SugaredLogger
}

var root *zap.Logger

// Init 初始化全局日志配置
// env 为 production 时输出 JSON，否则输出带颜色的开发格式
func Init(level string, env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	root = l
	return nil
}

// New 创建新的日志记录器
func New(module string) *Logger {
	if root == nil {
		// 未显式初始化时退化为开发配置
		l, _ := zap.NewDevelopment()
		root = l
	}
	return &Logger{sugar: root.Sugar().Named(module)}
}

// Sync 刷新缓冲的日志
func Sync() {
	if root != nil {
		_ = root.Sync()
	}
}

// Debug 调试日志
func (l *Logger) Debug(format string, args ...any) {
	l.sugar.Debugf(format, args...)
}

// Info 信息日志
func (l *Logger) Info(format string, args ...any) {
	l.sugar.Infof(format, args...)
}

// Warn 警告日志
func (l *Logger) Warn(format string, args ...any) {
	l.sugar.Warnf(format, args...)
}

// Error 错误日志
func (l *Logger) Error(format string, args ...any) {
	l.sugar.Errorf(format, args...)
}

// WithError 带错误的日志
func (l *Logger) WithError(err error) *Logger {
	if err != nil {
		l.sugar.Errorf("error: %v", err)
	}
	return l
}
