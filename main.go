package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"chaya/internal/apperrors"
	"chaya/internal/config"
	"chaya/internal/handlers"
	"chaya/internal/middleware"
	"chaya/internal/models"
	"chaya/internal/repositories"
	"chaya/internal/services"
	"chaya/internal/storage"
	"chaya/pkg/rabbitmq"
)

// maxBodySize must fit a multipart form carrying several 5MB documents.
const maxBodySize = 64 * 1024 * 1024

func main() {
	cfg := config.Load()

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Farmer{},
		&models.FarmerDocuments{},
		&models.BankDetails{},
		&models.Field{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// --- Object store ---
	store, err := storage.NewMinioStore(context.Background(), storage.MinioConfig{
		Endpoint:  cfg.StorageEndpoint,
		AccessKey: cfg.StorageAccessKey,
		SecretKey: cfg.StorageSecretKey,
		Bucket:    cfg.StorageBucket,
		UseSSL:    cfg.StorageUseSSL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	// --- RabbitMQ ---
	// Events are best-effort, so a broker outage degrades to log warnings
	// instead of preventing startup.
	var publisher services.EventPublisher
	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("RabbitMQ unavailable, events disabled: %v", err)
	} else {
		publisher = mqClient
		defer mqClient.Close()
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	farmerRepo := repositories.NewGORMFarmerRepository(db)

	if err := ensureAdmin(userRepo, cfg); err != nil {
		log.Fatalf("Failed to seed admin user: %v", err)
	}

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.SessionSecret)
	userService := services.NewUserService(userRepo, farmerRepo, cfg.UserDeletePolicy)
	farmerService := services.NewFarmerService(farmerRepo, store, publisher)
	exportService := services.NewExportService(farmerRepo, store, publisher)

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	farmerHandler := handlers.NewFarmerHandler(farmerService)
	exportHandler := handlers.NewExportHandler(exportService)
	documentHandler := handlers.NewDocumentHandler(farmerService)

	// --- Fiber app ---
	app := fiber.New(fiber.Config{BodyLimit: maxBodySize})
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	// Everything else requires a session.
	authed := api.Group("", middleware.SessionRequired(authService))
	farmerHandler.RegisterRoutes(authed)

	// Document URLs and exports additionally require the account to still
	// be active.
	active := authed.Group("", middleware.ActiveRequired(userService))
	documentHandler.RegisterRoutes(active)

	admin := active.Group("", middleware.AdminRequired())
	userHandler.RegisterRoutes(admin)
	exportHandler.RegisterRoutes(admin)
	farmerHandler.RegisterAdminRoutes(admin)

	// --- Event consumer ---
	if mqClient != nil {
		go func() {
			if consumerErr := mqClient.Consume(func(msg amqp.Delivery) error {
				log.Printf("Received farmer event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// ensureAdmin creates the bootstrap admin account when ADMIN_EMAIL is set
// and the account does not exist yet.
func ensureAdmin(userRepo repositories.UserRepository, cfg *config.Config) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	if _, err := userRepo.GetByEmail(cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:    cfg.AdminEmail,
		Password: string(hash),
		Name:     cfg.AdminName,
		Role:     models.RoleAdmin,
		IsActive: true,
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}
	log.Printf("Seeded admin user: %s", cfg.AdminEmail)
	return nil
}
