package repository_test

import (
	"testing"
	"time"

	"github.com/ebisa/bunamatch/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB with the full schema
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func seedUser(t *testing.T, gdb *gorm.DB, id int64, searches int) {
	t.Helper()
	lat, lon := 9.03, 38.74
	user := db.User{
		TelegramID:       id,
		Username:         "user" + string(rune('a'+id%26)),
		FirstName:        "Test",
		LastName:         "User",
		Age:              30,
		Gender:           db.GenderMale,
		Latitude:         &lat,
		Longitude:        &lon,
		Searches:         searches,
		RegistrationStep: db.RegStepCompleted,
		TermsAccepted:    true,
	}
	if err := gdb.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user %d: %v", id, err)
	}
	if searches != 0 {
		tx := db.CreditTransaction{
			UserID:      id,
			Amount:      searches,
			Type:        db.TxInitialFree,
			Description: "Initial free searches",
		}
		if err := gdb.Create(&tx).Error; err != nil {
			t.Fatalf("failed to seed ledger for user %d: %v", id, err)
		}
	}
}

func queued(userID int64, gender string, age int, lat, lon float64, since time.Time) *db.QueueEntry {
	return &db.QueueEntry{
		UserID:         userID,
		Gender:         gender,
		Age:            age,
		Latitude:       &lat,
		Longitude:      &lon,
		SearchingSince: since,
	}
}
