package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthonyc-dev/ems-server/internal/api"
	"github.com/anthonyc-dev/ems-server/internal/config"
	"github.com/anthonyc-dev/ems-server/internal/db"
	"github.com/anthonyc-dev/ems-server/internal/db/models"
	"github.com/anthonyc-dev/ems-server/internal/services"
	"github.com/anthonyc-dev/ems-server/internal/store"
	"github.com/anthonyc-dev/ems-server/pkg/logger"
	"github.com/anthonyc-dev/ems-server/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load(os.Getenv("EMS_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()
	zap.ReplaceGlobals(zapLogger)

	config.LogConfig(cfg, zapLogger)

	students, permits, closeDB, err := buildStores(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeDB()

	collector := metrics.NewCollector()

	tokenCodec := services.NewTokenCodec(cfg.Security.TokenSecret, cfg.Security.TokenTTL)
	qrEncoder := services.NewQREncoder(cfg.QR.FrontendURL)
	permitService := services.NewPermitService(students, permits, tokenCodec, qrEncoder, zapLogger, collector)

	router := api.NewRouter(zapLogger, collector, permitService)
	router.SetupRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()
	zapLogger.Info("Server started", zap.String("port", port))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		zapLogger.Error("Forced shutdown", zap.Error(err))
	}
	zapLogger.Info("Server gracefully stopped")
}

func buildStores(cfg *config.Configuration, zapLogger *zap.Logger) (store.StudentDirectory, store.PermitStore, func(), error) {
	if cfg.Database.Driver == "memory" {
		zapLogger.Info("Using in-memory stores")
		directory := store.NewMemoryStudentDirectory()
		for _, s := range seedStudents() {
			directory.Add(s)
		}
		return directory, store.NewMemoryPermitStore(), func() {}, nil
	}

	database, err := db.Initialize(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := seedDatabase(database, zapLogger); err != nil {
		return nil, nil, nil, err
	}

	closeDB := func() {
		if sqlDB, err := database.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return store.NewGormStudentDirectory(database), store.NewGormPermitStore(database), closeDB, nil
}

func seedDatabase(database *gorm.DB, zapLogger *zap.Logger) error {
	var count int64
	database.Model(&models.Student{}).Count(&count)
	if count > 0 {
		zapLogger.Info("Database already seeded, skipping")
		return nil
	}
	zapLogger.Info("Seeding database with initial data")

	students := seedStudents()
	if err := database.Create(&students).Error; err != nil {
		return err
	}
	zapLogger.Info("Created initial students", zap.Int("count", len(students)))
	return nil
}

func seedStudents() []models.Student {
	return []models.Student{
		{ID: uuid.New().String(), SchoolID: "2021-00042", FirstName: "Maria", LastName: "Santos", Email: "maria.santos@school.edu", PhoneNumber: "09170000001", Program: "BSIT", YearLevel: 3},
		{ID: uuid.New().String(), SchoolID: "2021-00043", FirstName: "Jose", LastName: "Reyes", Email: "jose.reyes@school.edu", PhoneNumber: "09170000002", Program: "BSCS", YearLevel: 3},
		{ID: uuid.New().String(), SchoolID: "2022-00108", FirstName: "Ana", LastName: "Cruz", Email: "ana.cruz@school.edu", PhoneNumber: "09170000003", Program: "BSED", YearLevel: 2},
		{ID: uuid.New().String(), SchoolID: "2023-00217", FirstName: "Paolo", LastName: "Garcia", Email: "paolo.garcia@school.edu", PhoneNumber: "09170000004", Program: "BSIT", YearLevel: 1},
	}
}
