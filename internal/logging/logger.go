package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 本番はJSON、それ以外は読みやすいコンソール出力
func New(level string, prod bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	if !prod {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}
