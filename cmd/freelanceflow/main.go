package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ManuelReschke/FreelanceFlow/app/repository"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/cache"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/database"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/env"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/events"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/filestore"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/jobqueue"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/mail"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/notify"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/payment"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/router"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/security"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/statistics"
	"github.com/ManuelReschke/FreelanceFlow/internal/pkg/upload"
)

func main() {
	app, cleanup := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	cleanup()
	if err != nil {
		log.Fatal(err)
	}
}

// NewApplication builds the app and returns a cleanup func that flushes
// outbound event writers.
func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	storeCfg, err := filestore.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid storage configuration: %v", err)
	}
	store, err := filestore.New(storeCfg)
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	publisher, cleanup := newPublisher()

	// init fiber app, leave room for multipart overhead on top of the file limit
	app := fiber.New(fiber.Config{
		BodyLimit: int(upload.MaxFileSize) + 1024*1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// static uploads
	if !storeCfg.S3Enabled {
		app.Static(storeCfg.PublicPath, storeCfg.LocalDir, fiber.Static{
			CacheDuration: 10 * time.Second,
			Compress:      false,
			MaxAge:        604800, // 7 days
		})
	}

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app, router.Dependencies{
		Publisher: publisher,
		Policy:    payment.LoadPolicy(),
		Store:     store,
		Tokens:    security.LoadTokenConfig(),
		Captcha:   hcaptcha.LoadVerifier(),
	})

	return app, cleanup
}

func newPublisher() (events.Publisher, func()) {
	publishers := events.Multi{statistics.Invalidator{}}
	cleanup := func() {}

	if kafkaCfg := events.LoadKafkaConfig(); kafkaCfg.Enabled {
		kp := events.NewKafkaPublisher(kafkaCfg)
		publishers = append(publishers, kp)
		cleanup = func() {
			if err := kp.Close(); err != nil {
				log.Printf("Failed to close Kafka writer: %v", err)
			}
		}
	}

	if mailCfg := mail.LoadConfig(); mailCfg.Enabled {
		users := repository.GetGlobalRepositories().User
		mailer := notify.NewPaymentMailer(mail.NewSMTPMailer(mailCfg), users)

		if env.GetBool("NOTIFY_QUEUE_ENABLED", true) {
			queue := jobqueue.NewQueue(cache.GetClient(), env.GetInt("NOTIFY_WORKERS", jobqueue.DefaultWorkers))
			queue.Handle(jobqueue.JobTypePaymentNotification, jobqueue.NotificationHandler(mailer))
			queue.Start()
			publishers = append(publishers, jobqueue.NotificationPublisher{Queue: queue})

			prev := cleanup
			cleanup = func() {
				queue.Stop()
				prev()
			}
		} else {
			publishers = append(publishers, events.Async{Next: mailer})
		}
	}

	return publishers, cleanup
}
