package services

import (
	"testing"

	"featboard/internal/db"
	"featboard/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB points the global db.DB at a fresh in-memory sqlite database.
func setupTestDB(t *testing.T) {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// A second connection to :memory: would be a different database entirely.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	db.DB = gdb
}

func createTestUser(t *testing.T, email string) *models.User {
	t.Helper()
	user := models.User{
		Username: email,
		Email:    email,
		Password: "not-a-real-hash",
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", email, err)
	}
	return &user
}

func createTestFeature(t *testing.T, author *models.User, title string) *models.Feature {
	t.Helper()
	feature, err := CreateFeature(author.ID, title, "A test description")
	if err != nil {
		t.Fatalf("Failed to create test feature %q: %v", title, err)
	}
	return feature
}

func featureCounts(t *testing.T, fid string) (up, down, total int) {
	t.Helper()
	feature, err := GetFeature(fid, 0)
	if err != nil {
		t.Fatalf("GetFeature(%s) failed: %v", fid, err)
	}
	return feature.UpvoteCount, feature.DownvoteCount, feature.TotalScore
}

func voteRowCount(t *testing.T, userID, featureID uint) int64 {
	t.Helper()
	var count int64
	db.DB.Model(&models.Vote{}).
		Where("user_id = ? AND feature_id = ?", userID, featureID).
		Count(&count)
	return count
}
