package data

import (
	"log"

	"github.com/stake-plus/questcomms/src/shared/types"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func MustMySQL(dsn string) *gorm.DB {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	return db
}

// Migrate creates or updates the schema for every model the bot and
// the API share.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Setting{},
		&types.GroupConfig{},
		&types.ModeratorSub{},
		&types.CommunityBinding{},
		&types.LedgerEntry{},
		&types.LedgerVote{},
		&types.ModeratorCopy{},
	)
}
