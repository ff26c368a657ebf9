package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	HTTPPort     string `envconfig:"HTTP_PORT" default:"4242"`
	APISecretKey string `envconfig:"API_SECRET_KEY"`

	PubMedBaseURL string `envconfig:"PUBMED_BASE_URL" default:"https://eutils.ncbi.nlm.nih.gov/entrez/eutils"`
	PubMedAPIKey  string `envconfig:"PUBMED_API_KEY"`
	PubMedEmail   string `envconfig:"PUBMED_EMAIL"`
	PubMedTool    string `envconfig:"PUBMED_TOOL" default:"pi-tracker-fetcher"`
	PubMedRetMax  int    `envconfig:"PUBMED_RETMAX" default:"10"`

	ReporterBaseURL  string  `envconfig:"REPORTER_BASE_URL" default:"https://api.reporter.nih.gov/v2"`
	ReporterPageSize int     `envconfig:"REPORTER_PAGE_SIZE" default:"500"`
	ReporterMaxPages int     `envconfig:"REPORTER_MAX_PAGES" default:"50"`
	ReporterSleepSec float64 `envconfig:"REPORTER_SLEEP_SEC" default:"0.25"`

	GrantsGovBaseURL string `envconfig:"GRANTSGOV_BASE_URL" default:"https://api.grants.gov/v1/api"`
	GrantsGovRows    int    `envconfig:"GRANTSGOV_ROWS" default:"50"`
	GrantsGovPages   int    `envconfig:"GRANTSGOV_PAGES" default:"2"`

	CronSchedule string `envconfig:"CRON_SCHEDULE" default:"0 0 * * *"`

	// S3-kompatibler Artefakt-Speicher (optional)
	S3Key    string `envconfig:"S3_KEY"`
	S3Secret string `envconfig:"S3_SECRET"`
	S3URL    string `envconfig:"S3_URL"`
	S3Region string `envconfig:"S3_REGION"`
	S3Bucket string `envconfig:"S3_BUCKET"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// S3Enabled meldet, ob der Artefakt-Upload konfiguriert ist.
func (c *Config) S3Enabled() bool {
	return c.S3URL != "" && c.S3Bucket != ""
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
