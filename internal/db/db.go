package db

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ebisa/bunamatch/internal/config"
)

// Models lists every table so production migration and test setups stay
// in sync.
func Models() []any {
	return []any{
		&User{},
		&QueueEntry{},
		&ChatSession{},
		&MatchHistory{},
		&Report{},
		&BannedUser{},
		&CreditTransaction{},
		&StarsPayment{},
		&UsernameShare{},
		&UserState{},
		&AdminAction{},
		&SealedMessage{},
	}
}

// NewDB initializes the database connection using DSN from config.
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DB.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	// AutoMigrate ensures schema is in sync with models.
	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
