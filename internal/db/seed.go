package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"
)

// SeedTestData resets the database and populates it with demo users
// scattered around Addis Ababa, each with a ledger-backed starting
// balance. Intended for development environments only.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	tables := []string{
		"sealed_messages", "username_shares", "reports", "match_history",
		"chat_sessions", "queue_entries", "credit_transactions",
		"stars_payments", "banned_users", "user_states", "admin_actions",
		"users",
	}
	for _, tbl := range tables {
		if err := db.Exec("DELETE FROM " + tbl).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", tbl, err)
		}
	}

	log.Println("Cleared existing data")

	// Addis Ababa city centre; jitter keeps everyone inside the default
	// 48 km match radius.
	const baseLat, baseLon = 9.0300, 38.7400

	firstNames := []string{
		"Abel", "Bers", "Caleb", "Dawit", "Elias", "Fikir", "Girum",
		"Hanna", "Liya", "Meron", "Niya", "Rahel", "Sara", "Tsion",
	}

	for i := 1; i <= 20; i++ {
		gender := GenderMale
		if i > 10 {
			gender = GenderFemale
		}

		lat := baseLat + (r.Float64()-0.5)*0.2
		lon := baseLon + (r.Float64()-0.5)*0.2

		user := User{
			TelegramID:       int64(1000 + i),
			Username:         fmt.Sprintf("demo_user_%02d", i),
			FirstName:        firstNames[r.Intn(len(firstNames))],
			LastName:         "Demo",
			Age:              20 + r.Intn(20),
			Gender:           gender,
			Latitude:         &lat,
			Longitude:        &lon,
			Searches:         3,
			RegistrationStep: RegStepCompleted,
			TermsAccepted:    true,
		}

		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		tx := CreditTransaction{
			UserID:      user.TelegramID,
			Amount:      3,
			Type:        TxInitialFree,
			Description: "Initial free searches",
		}
		if err := db.Create(&tx).Error; err != nil {
			return fmt.Errorf("failed to seed ledger row: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	return nil
}
