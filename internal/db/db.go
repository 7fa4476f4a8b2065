package db

import (
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/suPer8Hu/shopchat/internal/cart"
	"github.com/suPer8Hu/shopchat/internal/chat"
	"github.com/suPer8Hu/shopchat/internal/models"
)

func Connect(dsn string) *gorm.DB {
	// TranslateError maps driver duplicate-key errors to gorm.ErrDuplicatedKey
	gdb, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

// Migrate creates/updates all application tables.
func Migrate(gdb *gorm.DB) {
	if err := gdb.AutoMigrate(
		&models.User{},
		&chat.Session{},
		&chat.Message{},
		&chat.Job{},
		&cart.Item{},
		&cart.Purchase{},
	); err != nil {
		log.Fatalf("automigrate: %v", err)
	}
}
