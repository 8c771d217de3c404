package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"pulse/internal/handlers"
	"pulse/internal/middleware"
	"pulse/internal/models"
	"pulse/internal/repositories"
	"pulse/internal/services"
	"pulse/pkg/rabbitmq"
)

// OpenDatabase connects to postgres when a DSN is configured and falls back
// to a local sqlite file otherwise. TranslateError is required: the
// duplicate-username and duplicate-edge invariants rely on unique-constraint
// violations surfacing as gorm.ErrDuplicatedKey.
func OpenDatabase(dsn string) (*gorm.DB, error) {
	config := &gorm.Config{TranslateError: true}

	var db *gorm.DB
	var err error
	if dsn == "" {
		db, err = gorm.Open(sqlite.Open("pulse.db"), config)
	} else {
		db, err = gorm.Open(postgres.Open(dsn), config)
	}
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Subscription{}); err != nil {
		return nil, err
	}
	return db, nil
}

// NewApp wires repositories, services and handlers into a Fiber app. events
// and cache may be nil when no broker/Redis is configured.
func NewApp(db *gorm.DB, events services.PostEventPublisher, cache *redis.Client, jwtSecret string) *fiber.App {
	// Repositories
	userRepo := repositories.NewGORMUserRepository(db)
	postRepo := repositories.NewGORMPostRepository(db)
	subscriptionRepo := repositories.NewGORMSubscriptionRepository(db)

	// Services
	authService := services.NewAuthService(userRepo, postRepo, jwtSecret)
	userService := services.NewUserService(userRepo, postRepo, subscriptionRepo, cache)
	postService := services.NewPostService(postRepo, userRepo, events)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	postHandler := handlers.NewPostHandler(postService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, postService)

	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	apiV1 := app.Group("/api/v1")

	// Public authentication routes
	authHandler.RegisterRoutes(apiV1)

	// Everything else resolves the acting user from the Bearer token
	protected := apiV1.Group("", middleware.AuthRequired(authService))
	userHandler.RegisterRoutes(protected)
	postHandler.RegisterRoutes(protected)
	subscriptionHandler.RegisterRoutes(protected)

	return app
}

func main() {
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("JWT_SECRET", "change_me_in_production")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("REDIS_ADDR", "")
	viper.AutomaticEnv()

	db, err := OpenDatabase(viper.GetString("DATABASE_DSN"))
	if err != nil {
		logrus.WithError(err).Fatal("failed to initialize database")
	}

	// Post events are optional; without a broker the feed is still fully
	// functional, it is pull-based either way.
	var events services.PostEventPublisher
	var mqClient *rabbitmq.Client
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			logrus.WithError(err).Fatal("failed to initialize RabbitMQ client")
		}
		defer mqClient.Close()
		events = mqClient
	}

	var cache *redis.Client
	if addr := viper.GetString("REDIS_ADDR"); addr != "" {
		cache = redis.NewClient(&redis.Options{Addr: addr})
		defer cache.Close()
	}

	app := NewApp(db, events, cache, viper.GetString("JWT_SECRET"))

	if mqClient != nil {
		go func() {
			logrus.Info("starting post event consumer")
			err := mqClient.ConsumePostEvents(func(msg amqp.Delivery) error {
				logrus.WithField("tag", msg.DeliveryTag).Infof("post event: %s", msg.Body)
				return nil
			})
			if err != nil {
				logrus.WithError(err).Error("failed to start post event consumer")
			}
		}()
	}

	appPort := viper.GetString("APP_PORT")
	logrus.Infof("starting server on %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			logrus.WithError(err).Fatal("server failed to start")
		}
	}()

	<-quit
	logrus.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		logrus.WithError(err).Error("error during shutdown")
	}
	logrus.Info("server gracefully stopped")
}
