package services

import (
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pi-tracker/models"
)

// newTestDB öffnet eine In-Memory-SQLite pro Test. TranslateError sorgt
// dafür, dass Unique-Verletzungen wie unter Postgres als
// gorm.ErrDuplicatedKey ankommen.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Test-DB konnte nicht geöffnet werden: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Person{},
		&models.Project{},
		&models.Publication{},
		&models.GrantAward{},
		&models.GrantAwardYear{},
		&models.FundingOpportunity{},
		&models.Tag{},
		&models.Link{},
		&models.PersonProject{},
		&models.ProjectPublication{},
		&models.ProjectGrant{},
		&models.AuthorPublication{},
		&models.SearchQuery{},
	); err != nil {
		t.Fatalf("AutoMigrate fehlgeschlagen: %v", err)
	}
	return db
}

func newTestIngest(t *testing.T) *IngestService {
	t.Helper()
	return NewIngestService(newTestDB(t), zap.NewNop())
}
