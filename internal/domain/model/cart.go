package model

import "time"

// セッショントークンごとに1つ。最初の追加時に作る。
// UserIDはチェックアウト時にログインユーザーへ紐付ける。
type Cart struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SessionToken string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"-"`
	UserID       *int64    `gorm:"index" json:"user_id,omitempty"`
	CreatedAt    time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
