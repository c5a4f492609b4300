package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"gradereel/api-gateway/config"
	"gradereel/api-gateway/handlers"
	"gradereel/api-gateway/internal/gradingdb"
	"gradereel/api-gateway/internal/heygen"
	"gradereel/api-gateway/internal/mapping"
	"gradereel/api-gateway/internal/scriptgen"
	"gradereel/api-gateway/internal/videogen"
	"gradereel/api-gateway/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger(cfg.Environment)

	supabaseClient, err := config.NewSupabaseClient(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize Supabase: %v", err)
	}

	grading, err := gradingdb.New(cfg.GradingDSN, logger)
	if err != nil {
		logger.Fatalf("Failed to connect to grading database: %v", err)
	}
	defer grading.Close()

	store := videogen.NewSupabaseStore(supabaseClient)
	provider := heygen.NewClient(cfg.HeyGenBaseURL, cfg.HeyGenAPIKey, logger)
	scripts := scriptgen.NewGenerator(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, logger)
	engine := mapping.NewEngine(logger, mapping.PromptDataMethods())

	videos := videogen.NewService(store, grading, scripts, provider, engine, videogen.Options{
		Production:   cfg.IsProduction(),
		TestMode:     cfg.VideoTestMode,
		Caption:      cfg.VideoCaptions,
		FolderID:     cfg.HeyGenFolderID,
		BrandVoiceID: cfg.HeyGenBrandVoiceID,
	}, logger)
	reconciler := videogen.NewReconciler(store, logger)

	handler := handlers.NewApplicationHandler(videos, reconciler, logger, cfg.WebhookSecret)

	app := fiber.New()

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Signature",
	}))
	app.Use(middleware.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Feedback video service is healthy",
		})
	})

	apiV1 := app.Group("/api/v1")

	videosGroup := apiV1.Group("/videos")
	videosGroup.Post("", handler.CreateVideo)
	videosGroup.Get("/:videoId", handler.GetVideo)
	videosGroup.Put("/:videoId", handler.ReplaceVideo)
	videosGroup.Patch("/:videoId", handler.PatchVideo)
	videosGroup.Delete("/:videoId", handler.DeleteVideo)

	apiV1.Post("/webhooks/heygen", handler.HandleHeyGenWebhook)

	logger.Infof("Starting feedback video service on %s", cfg.ListenAddr)
	logger.Fatal(app.Listen(cfg.ListenAddr))
}
