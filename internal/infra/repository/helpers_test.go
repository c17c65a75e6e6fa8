package repository

import (
	"testing"

	"shopcart/internal/domain/model"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 接続1本のインメモリDB（接続ごとに別DBになるため）
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(model.All()...))
	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, name string, price int64, stock int64, vars ...model.Variation) model.Product {
	t.Helper()

	p := model.Product{Name: name, Price: price, Stock: stock, IsActive: true, Variations: vars}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}
