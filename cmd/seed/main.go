package main

import (
	"fmt"
	"time"

	"starcast/pkg/config"
	"starcast/pkg/database"
	"starcast/pkg/logger"
	"starcast/pkg/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	if err := seedDatabase(db, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(db *gorm.DB, log *logger.Logger) error {
	testUsers := []struct {
		email    string
		username string
		password string
		role     models.UserRole
	}{
		{"alice@test.com", "alice_live", "password123", models.RoleCreator},
		{"bob@test.com", "bob_live", "password123", models.RoleCreator},
		{"charlie@test.com", "charlie_fan", "password123", models.RoleViewer},
		{"diana@test.com", "diana_fan", "password123", models.RoleViewer},
		{"eve@test.com", "eve_mod", "password123", models.RoleModerator},
	}

	userIDs := make([]string, 0, len(testUsers))
	for _, tu := range testUsers {
		var existing models.User
		if err := db.Where("email = ?", tu.email).First(&existing).Error; err == nil {
			log.Info("User %s already exists, skipping", tu.username)
			userIDs = append(userIDs, existing.ID)
			continue
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(tu.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := &models.User{
			Email:    tu.email,
			Username: tu.username,
			Password: string(hashed),
			Role:     tu.role,
			IsActive: true,
		}
		if err := db.Create(user).Error; err != nil {
			return fmt.Errorf("failed to create user %s: %w", tu.username, err)
		}
		log.Info("Created user %s (%s)", tu.username, tu.role)
		userIDs = append(userIDs, user.ID)
	}

	if len(userIDs) < 4 {
		return fmt.Errorf("expected at least 4 seeded users, got %d", len(userIDs))
	}

	// Fan accounts follow the creators.
	for _, fanID := range userIDs[2:4] {
		for _, creatorID := range userIDs[:2] {
			if err := db.Transaction(func(tx *gorm.DB) error {
				follow := &models.Follow{FollowerID: fanID, FollowingID: creatorID}
				if err := tx.Create(follow).Error; err != nil {
					if err == gorm.ErrDuplicatedKey {
						return nil
					}
					return err
				}
				return models.ApplyFollowDelta(tx, fanID, creatorID, 1)
			}); err != nil {
				return fmt.Errorf("failed to seed follow: %w", err)
			}
		}
	}

	// One upcoming event per creator plus an already-published post.
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(models.DefaultEventDuration)
	sessions := []*models.Session{
		{
			CreatorID: userIDs[0],
			Title:     "Acoustic Friday",
			Caption:   "Unplugged set, requests welcome",
			Type:      models.SessionTypeEvent,
			Genre:     "Music",
			Status:    models.StatusScheduled,
			StartTime: &start,
			EndTime:   &end,
		},
		{
			CreatorID: userIDs[1],
			Title:     "Speedrun practice",
			Caption:   "Grinding the any% route",
			Type:      models.SessionTypeEvent,
			Genre:     "Gaming",
			Status:    models.StatusScheduled,
			StartTime: &start,
			EndTime:   &end,
		},
		{
			CreatorID: userIDs[0],
			Title:     "Last night's highlights",
			Caption:   "Clips from the weekend stream",
			Type:      models.SessionTypePost,
			Status:    models.StatusEnded,
		},
	}

	for _, s := range sessions {
		var count int64
		db.Model(&models.Session{}).
			Where("creator_id = ? AND title = ?", s.CreatorID, s.Title).
			Count(&count)
		if count > 0 {
			log.Info("Session %q already exists, skipping", s.Title)
			continue
		}
		if err := db.Create(s).Error; err != nil {
			return fmt.Errorf("failed to create session %q: %w", s.Title, err)
		}
		log.Info("Created session %q (%s)", s.Title, s.Status)
	}

	return nil
}
