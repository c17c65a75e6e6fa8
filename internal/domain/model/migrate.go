package model

// AutoMigrate対象
func All() []interface{} {
	return []interface{}{
		&Product{},
		&Variation{},
		&Cart{},
		&CartItem{},
		&Order{},
		&Payment{},
		&OrderProduct{},
		&InventoryAdjustment{},
		&AuditLog{},
	}
}
