package db

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	seedCities    = []string{"Mumbai", "Pune", "Bengaluru"}
	seedInterests = []string{"Coffee", "Tech", "Photography", "Travel", "Movies", "Books", "Hiking", "Music", "Food"}
	seedActivity  = []string{
		"Going to Marine Drive tonight, anyone up for a walk?",
		"Looking for a badminton partner this weekend",
		"Checking out the new cafe in Bandra tomorrow morning",
		"Movie marathon on Sunday, bring snacks",
		"Sunrise trek to Lonavala on Saturday",
	}
)

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears chats, requests, threads, tokens and users.
//  2. Creates 20 verified users (password "Password1") spread over a few cities.
//  3. Creates one thread for every other user.
//  4. Creates requests in all three states; accepted ones get their Chat.
//
// Works on MySQL, Postgres and SQLite.
func SeedTestData(db *gorm.DB, log *slog.Logger) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{TableChats, TableConnectionRequests, TableThreads, "verification_tokens", TableUsers} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	log.Info("cleared existing data")

	hash, err := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// --- Users ---
	now := time.Now().UTC()
	users := make([]User, 0, 20)
	for i := 1; i <= 20; i++ {
		age := 21 + r.Intn(15)
		city := seedCities[i%len(seedCities)]
		bio := fmt.Sprintf("Hi, I'm user %d. Always up for something new.", i)

		interests := make([]string, 0, 3)
		for _, idx := range r.Perm(len(seedInterests))[:3] {
			interests = append(interests, seedInterests[idx])
		}

		users = append(users, User{
			Name:         fmt.Sprintf("User %d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Age:          &age,
			City:         &city,
			Bio:          &bio,
			Interests:    interests,
			IsVerified:   true,
			CreatedAt:    now.Add(-time.Duration(21-i) * time.Hour),
		})
	}
	if err := db.Create(&users).Error; err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	log.Info("seeded users", "count", len(users))

	// --- Threads ---
	for i := 0; i < len(users); i += 2 {
		thread := Thread{
			AuthorID:        users[i].ID,
			Content:         seedActivity[r.Intn(len(seedActivity))],
			InterestedCount: r.Intn(8),
			CreatedAt:       now.Add(-time.Duration(r.Intn(48)) * time.Hour),
		}
		if err := db.Create(&thread).Error; err != nil {
			return fmt.Errorf("failed to seed thread: %w", err)
		}
	}

	// --- Requests ---
	counter := 0
	for i := range users {
		receiver := users[(i+1+r.Intn(len(users)-1))%len(users)]
		if receiver.ID == users[i].ID {
			continue
		}

		req := ConnectionRequest{
			SenderID:   users[i].ID,
			ReceiverID: receiver.ID,
			Message:    "Hey! Would love to grab a coffee sometime.",
			Status:     StatusPending,
		}
		// every 3rd request is accepted, every 5th rejected
		switch {
		case counter%3 == 0:
			req.Status = StatusAccepted
		case counter%5 == 0:
			req.Status = StatusRejected
		}
		if req.Status != StatusPending {
			responded := now
			req.RespondedAt = &responded
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&req).Error; err != nil {
				return err
			}
			if req.Status != StatusAccepted {
				return nil
			}
			chat := Chat{User1ID: req.SenderID, User2ID: req.ReceiverID, RequestID: req.ID}
			return tx.Where(Chat{PairKey: PairKey(req.SenderID, req.ReceiverID)}).FirstOrCreate(&chat).Error
		})
		if err != nil {
			return fmt.Errorf("failed to seed request: %w", err)
		}
		counter++
	}
	log.Info("seeded requests", "count", counter)

	return nil
}
