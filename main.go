package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"pi-tracker/config"
	"pi-tracker/models"
	"pi-tracker/providers/grantsgov"
	"pi-tracker/services"
	"pi-tracker/storage"
)

var (
	ingestedRecords = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pi_tracker_ingested_records_total",
			Help: "Abgeglichene Datensätze nach Quelle und Ausgang.",
		},
		[]string{"source", "outcome"},
	)
	ingestFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pi_tracker_ingest_failures_total",
			Help: "Fehlgeschlagene Datensätze nach Quelle.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(ingestedRecords, ingestFailures)
}

func observeReport(source string, report services.IngestReport) {
	ingestedRecords.WithLabelValues(source, "created").Add(float64(report.Created))
	ingestedRecords.WithLabelValues(source, "updated").Add(float64(report.Updated))
	ingestedRecords.WithLabelValues(source, "noop").Add(float64(report.NoOps))
	ingestFailures.WithLabelValues(source).Add(float64(len(report.Failures)))
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("Logger-Initialisierung fehlgeschlagen: %v", err))
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Konfiguration konnte nicht geladen werden", zap.Error(err))
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatal("Datenbankverbindung fehlgeschlagen", zap.Error(err))
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
		logger.Fatal("AutoMigrate fehlgeschlagen", zap.Error(err))
	}

	var s3Client *s3.Client
	if cfg.S3Enabled() {
		s3Client, err = storage.NewS3Client(cfg)
		if err != nil {
			logger.Fatal("S3-Client konnte nicht erstellt werden", zap.Error(err))
		}
		logger.Info("S3-Artefakt-Upload aktiv", zap.String("bucket", cfg.S3Bucket))
	} else {
		logger.Info("S3 nicht konfiguriert, Such-Artefakte werden nicht hochgeladen")
	}

	searchLog := services.NewSearchLogService(cfg, db, s3Client, logger)
	fetcher := services.NewFetchService(cfg, db, logger, searchLog)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// Health und Metriken bleiben ohne API-Key erreichbar.
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("", apiKeyAuth(cfg.APISecretKey, logger))
	setupProjectRoutes(api, db, logger)
	setupPeopleRoutes(api, db, logger)
	setupPublicationRoutes(api, db, logger)
	setupGrantRoutes(api, db, logger)
	setupOpportunityRoutes(api, db, logger)
	setupLinkAndTagRoutes(api, db, logger)
	setupSearchRoutes(api, fetcher, logger)
	setupSearchLogRoutes(api, searchLog)

	if cfg.CronSchedule != "" {
		c := cron.New()
		if _, err := c.AddFunc(cfg.CronSchedule, func() {
			logger.Info("Geplanter Sync startet")
			pubReport, awardReport := fetcher.RunScheduledSync(context.Background())
			observeReport("pubmed", pubReport)
			observeReport("reporter", awardReport)
		}); err != nil {
			logger.Fatal("Cron-Schedule ungültig", zap.String("schedule", cfg.CronSchedule), zap.Error(err))
		}
		c.Start()
		logger.Info("Cron aktiv", zap.String("schedule", cfg.CronSchedule))
	}

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
	}

	logger.Info("Server startet", zap.String("port", cfg.HTTPPort))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server beendet", zap.Error(err))
	}
}

// apiKeyAuth prüft den X-API-KEY Header. Ohne konfigurierten Key läuft
// die API offen (lokale Entwicklung).
func apiKeyAuth(secret string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != secret {
			logger.Warn("Unautorisierter Zugriff abgewiesen", zap.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}

// abortWithError bildet die Fehler-Taxonomie auf HTTP-Status ab.
func abortWithError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var ie *services.IntegrityError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.As(err, &ie):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": ie.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, gorm.ErrDuplicatedKey):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate key"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// paramID parst einen uint-Pfadparameter; 0 mit false bei Müll.
func paramID(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s: %q", name, raw)})
		return 0, false
	}
	return uint(id), true
}

func queryLimit(c *gin.Context, fallback, max int) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(fallback)))
	if err != nil || limit <= 0 {
		return fallback
	}
	if limit > max {
		return max
	}
	return limit
}

// ---------- Projekte ----------

func setupProjectRoutes(api *gin.RouterGroup, db *gorm.DB, logger *zap.Logger) {
	svc := services.NewProjectService(db, logger)
	relations := services.NewRelationService(db, logger)

	api.POST("/projects", func(c *gin.Context) {
		var project models.Project
		if err := c.ShouldBindJSON(&project); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.CreateProject(c.Request.Context(), &project); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, project)
	})

	api.GET("/projects", func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Model(&models.Project{})
		if stage := c.Query("stage"); stage != "" {
			q = q.Where("stage = ?", stage)
		}
		if source := c.Query("source"); source != "" {
			q = q.Where("source = ?", source)
		}
		var projects []models.Project
		if err := q.Order("id").Limit(queryLimit(c, 100, 500)).Find(&projects).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	})

	api.GET("/projects/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var project models.Project
		if err := db.WithContext(c.Request.Context()).First(&project, id).Error; err != nil {
			abortWithError(c, err)
			return
		}
		var tags []models.Tag
		db.WithContext(c.Request.Context()).Where("project_id = ?", id).Order("label").Find(&tags)
		var links []models.Link
		db.WithContext(c.Request.Context()).
			Where("owner_type = ? AND owner_id = ?", models.LinkOwnerProject, id).
			Find(&links)
		c.JSON(http.StatusOK, gin.H{"project": project, "tags": tags, "links": links})
	})

	type projectQuery struct {
		Stage   string `json:"stage"`
		Source  string `json:"source"`
		Keyword string `json:"keyword"`
		Limit   int    `json:"limit"`
	}
	api.POST("/projects/query", func(c *gin.Context) {
		var pq projectQuery
		if err := c.ShouldBindJSON(&pq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q := db.WithContext(c.Request.Context()).Model(&models.Project{})
		if pq.Stage != "" {
			if !models.ValidStage(pq.Stage) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown stage %q", pq.Stage)})
				return
			}
			q = q.Where("stage = ?", pq.Stage)
		}
		if pq.Source != "" {
			q = q.Where("source = ?", pq.Source)
		}
		if pq.Keyword != "" {
			q = q.Where("title LIKE ?", "%"+pq.Keyword+"%")
		}
		limit := pq.Limit
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		var projects []models.Project
		if err := q.Order("id").Limit(limit).Find(&projects).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	})

	api.PATCH("/projects/:id/stage", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body struct {
			Stage string `json:"stage"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.UpdateStage(c.Request.Context(), id, body.Stage); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	})

	api.PATCH("/projects/:id/ai", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var update services.AIUpdate
		if err := c.ShouldBindJSON(&update); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.UpdateAICache(c.Request.Context(), id, update); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "cached"})
	})

	api.PUT("/projects/:id/summary", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body struct {
			Summary string `json:"summary"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := svc.SetManualSummary(c.Request.Context(), id, body.Summary); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "override set"})
	})

	api.DELETE("/projects/:id/summary/override", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.ClearManualOverride(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "override cleared"})
	})

	api.DELETE("/projects/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.DeleteProject(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})

	// Relationen am Projekt
	api.POST("/projects/:id/people", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body struct {
			PersonID uint   `json:"person_id"`
			Role     string `json:"role"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := relations.AttachPersonToProject(body.PersonID, id, body.Role); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "attached"})
	})

	api.DELETE("/projects/:id/people/:personId", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		personID, ok := paramID(c, "personId")
		if !ok {
			return
		}
		if err := relations.DetachPersonFromProject(personID, id); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "detached"})
	})

	api.POST("/projects/:id/publications", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body struct {
			PubID      uint   `json:"pub_id"`
			Provenance string `json:"provenance"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.Provenance == "" {
			body.Provenance = models.SourceManual
		}
		if err := relations.AttachPublicationToProject(id, body.PubID, body.Provenance); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "attached"})
	})

	api.DELETE("/projects/:id/publications/:pubId", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		pubID, ok := paramID(c, "pubId")
		if !ok {
			return
		}
		if err := relations.DetachPublicationFromProject(id, pubID); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "detached"})
	})

	api.POST("/projects/:id/grants", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body struct {
			GrantID    uint     `json:"grant_id"`
			Role       string   `json:"role"`
			Confidence *float64 `json:"confidence"`
			Notes      string   `json:"notes"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := relations.AttachGrantToProject(id, body.GrantID, body.Role, body.Confidence, body.Notes); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "attached"})
	})

	api.DELETE("/projects/:id/grants/:grantId", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		grantID, ok := paramID(c, "grantId")
		if !ok {
			return
		}
		if err := relations.DetachGrantFromProject(id, grantID); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "detached"})
	})
}

// ---------- Personen ----------

func setupPeopleRoutes(api *gin.RouterGroup, db *gorm.DB, logger *zap.Logger) {
	svc := services.NewProjectService(db, logger)

	api.POST("/people", func(c *gin.Context) {
		var person models.Person
		if err := c.ShouldBindJSON(&person); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if person.LastName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "last_name required"})
			return
		}
		if person.FullName == "" {
			person.FullName = person.DisplayName()
		}
		if err := db.WithContext(c.Request.Context()).Create(&person).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, person)
	})

	api.GET("/people", func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Model(&models.Person{})
		if role := c.Query("role"); role != "" {
			q = q.Where("role = ?", role)
		}
		var people []models.Person
		if err := q.Order("last_name, first_name").Limit(queryLimit(c, 100, 500)).Find(&people).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, people)
	})

	api.GET("/people/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var person models.Person
		if err := db.WithContext(c.Request.Context()).First(&person, id).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, person)
	})

	api.GET("/people/:id/publications", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var pubs []models.Publication
		err := db.WithContext(c.Request.Context()).
			Joins("JOIN author_pub_relation apr ON apr.pub_id = pubs.id").
			Where("apr.person_id = ?", id).
			Order("pubs.year DESC, pubs.id DESC").
			Limit(queryLimit(c, 100, 500)).
			Find(&pubs).Error
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, pubs)
	})

	api.DELETE("/people/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.DeletePerson(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})
}

// ---------- Publikationen ----------

func setupPublicationRoutes(api *gin.RouterGroup, db *gorm.DB, logger *zap.Logger) {
	svc := services.NewProjectService(db, logger)
	ingest := services.NewIngestService(db, logger)

	// Manuelle Anlage läuft über denselben Abgleich wie die Provider, damit
	// ein handeingetragener PMID-Datensatz nicht dupliziert.
	api.POST("/publications", func(c *gin.Context) {
		var rec models.PublicationRecord
		if err := c.ShouldBindJSON(&rec); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if rec.Title == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
			return
		}
		res, err := ingest.IngestPublication(c.Request.Context(), rec, 0)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, res)
	})

	api.GET("/publications", func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Model(&models.Publication{})
		if year := c.Query("year"); year != "" {
			q = q.Where("year = ?", year)
		}
		if kw := c.Query("keyword"); kw != "" {
			q = q.Where("title LIKE ?", "%"+kw+"%")
		}
		var pubs []models.Publication
		if err := q.Order("year DESC, id DESC").Limit(queryLimit(c, 100, 500)).Find(&pubs).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, pubs)
	})

	api.GET("/publications/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var pub models.Publication
		if err := db.WithContext(c.Request.Context()).First(&pub, id).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, pub)
	})

	api.DELETE("/publications/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := svc.DeletePublication(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})
}

// ---------- Grants ----------

func setupGrantRoutes(api *gin.RouterGroup, db *gorm.DB, logger *zap.Logger) {
	svc := services.NewProjectService(db, logger)

	api.GET("/grants", func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Model(&models.GrantAward{})
		if status := c.Query("status"); status != "" {
			q = q.Where("status = ?", status)
		}
		var grants []models.GrantAward
		if err := q.Order("id").Limit(queryLimit(c, 100, 500)).Find(&grants).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, grants)
	})

	// Lookup über die Core-Projektnummer, inklusive Jahres-Slices.
	api.GET("/grants/:core", func(c *gin.Context) {
		core := c.Param("core")
		var grant models.GrantAward
		if err := db.WithContext(c.Request.Context()).
			Where("core_project_num = ?", core).
			First(&grant).Error; err != nil {
			abortWithError(c, err)
			return
		}
		var years []models.GrantAwardYear
		if err := db.WithContext(c.Request.Context()).
			Where("grant_id = ?", grant.ID).
			Order("fiscal_year").
			Find(&years).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"grant": grant, "fiscal_years": years})
	})

	type grantQuery struct {
		Status  string `json:"status"`
		Agency  string `json:"agency"`
		Keyword string `json:"keyword"`
		Limit   int    `json:"limit"`
	}
	api.POST("/grants/query", func(c *gin.Context) {
		var gq grantQuery
		if err := c.ShouldBindJSON(&gq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q := db.WithContext(c.Request.Context()).Model(&models.GrantAward{})
		if gq.Status != "" {
			if !models.ValidGrantStatus(gq.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", gq.Status)})
				return
			}
			q = q.Where("status = ?", gq.Status)
		}
		if gq.Agency != "" {
			q = q.Where("agency = ?", gq.Agency)
		}
		if gq.Keyword != "" {
			q = q.Where("core_project_num LIKE ? OR org_name LIKE ? OR title LIKE ?",
				"%"+gq.Keyword+"%", "%"+gq.Keyword+"%", "%"+gq.Keyword+"%")
		}
		limit := gq.Limit
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		var grants []models.GrantAward
		if err := q.Order("id").Limit(limit).Find(&grants).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, grants)
	})

	// Manuelle Kurationsfelder; die Provider-Felder bleiben dem Abgleich
	// vorbehalten.
	api.PATCH("/grants/:core", func(c *gin.Context) {
		core := c.Param("core")
		var body struct {
			FitScore *float64   `json:"fit_score"`
			Notes    *string    `json:"notes"`
			Deadline *time.Time `json:"deadline"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		updates := map[string]interface{}{}
		if body.FitScore != nil {
			updates["fit_score"] = *body.FitScore
		}
		if body.Notes != nil {
			updates["notes"] = *body.Notes
		}
		if body.Deadline != nil {
			updates["deadline"] = *body.Deadline
		}
		if len(updates) == 0 {
			c.JSON(http.StatusOK, gin.H{"status": "noop"})
			return
		}
		res := db.WithContext(c.Request.Context()).
			Model(&models.GrantAward{}).
			Where("core_project_num = ?", core).
			Updates(updates)
		if res.Error != nil {
			abortWithError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "updated"})
	})

	api.DELETE("/grants/:core", func(c *gin.Context) {
		core := c.Param("core")
		var grant models.GrantAward
		if err := db.WithContext(c.Request.Context()).
			Where("core_project_num = ?", core).
			First(&grant).Error; err != nil {
			abortWithError(c, err)
			return
		}
		if err := svc.DeleteGrant(c.Request.Context(), grant.ID); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})
}

// ---------- Opportunities ----------

func setupOpportunityRoutes(api *gin.RouterGroup, db *gorm.DB, logger *zap.Logger) {
	api.GET("/opportunities", func(c *gin.Context) {
		q := db.WithContext(c.Request.Context()).Model(&models.FundingOpportunity{})
		if status := c.Query("status"); status != "" {
			q = q.Where("opp_status = ?", status)
		}
		var opps []models.FundingOpportunity
		if err := q.Order("close_date").Limit(queryLimit(c, 100, 500)).Find(&opps).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, opps)
	})

	api.GET("/opportunities/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var opp models.FundingOpportunity
		if err := db.WithContext(c.Request.Context()).First(&opp, id).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, opp)
	})

	type oppQuery struct {
		Status      string     `json:"status"`
		AgencyCode  string     `json:"agency_code"`
		Keyword     string     `json:"keyword"`
		CloseAfter  *time.Time `json:"close_after"`
		CloseBefore *time.Time `json:"close_before"`
		Limit       int        `json:"limit"`
		Offset      int        `json:"offset"`
	}
	api.POST("/opportunities/query", func(c *gin.Context) {
		var oq oppQuery
		if err := c.ShouldBindJSON(&oq); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q := db.WithContext(c.Request.Context()).Model(&models.FundingOpportunity{})
		if oq.Status != "" {
			if !models.ValidOppStatus(oq.Status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", oq.Status)})
				return
			}
			q = q.Where("opp_status = ?", oq.Status)
		}
		if oq.AgencyCode != "" {
			q = q.Where("agency_code = ?", oq.AgencyCode)
		}
		if oq.Keyword != "" {
			q = q.Where("title LIKE ?", "%"+oq.Keyword+"%")
		}
		if oq.CloseAfter != nil {
			q = q.Where("close_date >= ?", *oq.CloseAfter)
		}
		if oq.CloseBefore != nil {
			q = q.Where("close_date <= ?", *oq.CloseBefore)
		}
		limit := oq.Limit
		if limit <= 0 || limit > 500 {
			limit = 100
		}
		var opps []models.FundingOpportunity
		var total int64
		if err := q.Count(&total).Error; err != nil {
			abortWithError(c, err)
			return
		}
		if err := q.Order("close_date").Offset(oq.Offset).Limit(limit).Find(&opps).Error; err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": total, "results": opps})
	})

	api.DELETE("/opportunities/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		res := db.WithContext(c.Request.Context()).Delete(&models.FundingOpportunity{}, id)
		if res.Error != nil {
			abortWithError(c, res.Error)
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})
}

// ---------- Links und Tags ----------

func setupLinkAndTagRoutes(api *gin.RouterGroup, db *gorm.DB, logger *zap.Logger) {
	relations := services.NewRelationService(db, logger)

	api.POST("/projects/:id/tags", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body struct {
			Label string `json:"label"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := relations.AttachTag(id, body.Label); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "tagged"})
	})

	api.DELETE("/projects/:id/tags/:label", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := relations.DetachTag(id, c.Param("label")); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "untagged"})
	})

	api.POST("/projects/:id/links", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		var body struct {
			URL      string `json:"url"`
			LinkType string `json:"link_type"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		link := models.NewProjectLink(id, body.URL, body.LinkType)
		if err := relations.AttachLink(link); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "linked"})
	})

	api.POST("/grants/:core/links", func(c *gin.Context) {
		core := c.Param("core")
		var grant models.GrantAward
		if err := db.WithContext(c.Request.Context()).
			Where("core_project_num = ?", core).
			First(&grant).Error; err != nil {
			abortWithError(c, err)
			return
		}
		var body struct {
			URL      string `json:"url"`
			LinkType string `json:"link_type"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		link := models.NewGrantLink(grant.ID, body.URL, body.LinkType)
		if err := relations.AttachLink(link); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"status": "linked"})
	})

	api.DELETE("/links/:id", func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			return
		}
		if err := relations.DetachLink(id); err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	})
}

// ---------- Sync-Trigger ----------

// Die Search-Endpunkte stoßen dieselben Jobs an wie der Cron, nur auf
// Anfrage und asynchron (202 + Hintergrund-Job).
func setupSearchRoutes(api *gin.RouterGroup, fetcher *services.FetchService, logger *zap.Logger) {
	api.POST("/search/publications", func(c *gin.Context) {
		var body struct {
			PersonID uint `json:"person_id"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		go func(personID uint) {
			ctx := context.Background()
			var report services.IngestReport
			var err error
			if personID > 0 {
				report, err = fetcher.SyncPersonPublications(ctx, personID)
			} else {
				report, err = fetcher.SyncFacultyPublications(ctx)
			}
			if err != nil {
				logger.Error("Publikations-Sync fehlgeschlagen", zap.Error(err))
				return
			}
			observeReport("pubmed", report)
		}(body.PersonID)
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	})

	api.POST("/search/awards", func(c *gin.Context) {
		var body struct {
			ProjectID  uint   `json:"project_id"`
			SearchText string `json:"search_text"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.ProjectID > 0 && body.SearchText == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "search_text required with project_id"})
			return
		}
		go func(projectID uint, text string) {
			ctx := context.Background()
			var report services.IngestReport
			var err error
			if projectID > 0 {
				report, err = fetcher.SyncAwardsForProject(ctx, projectID, text)
			} else {
				report, err = fetcher.SyncFacultyAwards(ctx)
			}
			if err != nil {
				logger.Error("Award-Sync fehlgeschlagen", zap.Error(err))
				return
			}
			observeReport("reporter", report)
		}(body.ProjectID, body.SearchText)
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	})

	api.POST("/search/opportunities", func(c *gin.Context) {
		var body struct {
			Keyword  string   `json:"keyword"`
			Statuses []string `json:"statuses"`
			Agencies []string `json:"agencies"`
			ALN      string   `json:"aln"`
			Category string   `json:"category"`
			Details  bool     `json:"details"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.Keyword == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "keyword required"})
			return
		}
		if len(body.Statuses) == 0 {
			body.Statuses = []string{models.OppPosted, models.OppForecasted}
		}
		q := grantsgov.Query{
			Keyword:  body.Keyword,
			Statuses: body.Statuses,
			Agencies: body.Agencies,
			ALN:      body.ALN,
			Category: body.Category,
		}
		go func(q grantsgov.Query, details bool) {
			report, err := fetcher.SyncOpportunities(context.Background(), q, details)
			if err != nil {
				logger.Error("Opportunity-Sync fehlgeschlagen", zap.Error(err))
				return
			}
			observeReport("grants.gov", report)
		}(q, body.Details)
		c.JSON(http.StatusAccepted, gin.H{"status": "started"})
	})
}

// ---------- Such-Audit-Log ----------

func setupSearchLogRoutes(api *gin.RouterGroup, searchLog *services.SearchLogService) {
	api.GET("/search/log", func(c *gin.Context) {
		entries, err := searchLog.Recent(c.Request.Context(), queryLimit(c, 50, 200))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	})
}
