package services

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pi-tracker/config"
	"pi-tracker/models"
	"pi-tracker/storage"
)

// SearchLogService schreibt das append-only Audit-Log der Opportunity-Suchen.
// Einträge werden nie mutiert oder gelöscht; das Roh-Ergebnis jeder Suche
// landet als JSON-Artefakt im S3 und wird im Log referenziert.
type SearchLogService struct {
	Config   *config.Config
	DB       *gorm.DB
	S3Client *s3.Client
	Logger   *zap.Logger
}

// NewSearchLogService erstellt eine neue Instanz des SearchLogService.
func NewSearchLogService(cfg *config.Config, db *gorm.DB, s3Client *s3.Client, logger *zap.Logger) *SearchLogService {
	return &SearchLogService{Config: cfg, DB: db, S3Client: s3Client, Logger: logger}
}

// Record hängt einen Suchlauf ans Audit-Log an. rawJSON ist optional das
// komplette Suchergebnis; gelingt der Upload nicht, wird trotzdem geloggt
// (nur ohne Artefakt-Pfad).
func (s *SearchLogService) Record(ctx context.Context, entry models.SearchQuery, rawJSON []byte) (models.SearchQuery, error) {
	if len(rawJSON) > 0 && s.S3Client != nil {
		key := fmt.Sprintf("searches/opportunities-%s.json", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
		link, err := storage.UploadFile(s.S3Client, s.Config.S3Bucket, key, rawJSON, s.Config)
		if err != nil {
			s.Logger.Warn("Artefakt-Upload fehlgeschlagen, logge ohne Pfad", zap.Error(err))
		} else {
			entry.OutputFile = link
		}
	}

	if err := s.DB.WithContext(ctx).Create(&entry).Error; err != nil {
		return models.SearchQuery{}, err
	}
	return entry, nil
}

// Recent liefert die letzten Suchläufe, neueste zuerst.
func (s *SearchLogService) Recent(ctx context.Context, limit int) ([]models.SearchQuery, error) {
	if limit <= 0 {
		limit = 20
	}
	var entries []models.SearchQuery
	err := s.DB.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
