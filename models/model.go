package models

import "gorm.io/gorm"

// AutoMigrate creates or updates every table the durable stores use.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Order{},
		&Trade{},
		&PaymentTransaction{},
		&SettlementBatch{},
		&LiquidityPool{},
		&MarketPrice{},
	)
}
