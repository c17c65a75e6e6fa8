package db

import (
	"context"
	"time"

	"shopcart/internal/config"
	"shopcart/internal/domain/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect はDBに接続して *gorm.DB を返す。
func Connect(cfg config.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig(cfg))
	if err != nil {
		return nil, err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return gormDB, nil
}

// unique違反などをgormのエラーに変換させる
func gormConfig(cfg config.Config) *gorm.Config {
	level := logger.Warn
	if !cfg.IsProd() {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	}
}

// テーブル作成（スキーマ管理ツールは使わない）
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(model.All()...)
}

// /healthz 用
func Ping(ctx context.Context, gormDB *gorm.DB) error {
	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
