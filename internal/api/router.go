package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/paperdeck/paperdeck/internal/api/handler"
	custommw "github.com/paperdeck/paperdeck/internal/api/middleware"
	"github.com/paperdeck/paperdeck/internal/assets"
	"github.com/paperdeck/paperdeck/internal/config"
	"github.com/paperdeck/paperdeck/internal/llm"
	"github.com/paperdeck/paperdeck/internal/llm/azure"
	"github.com/paperdeck/paperdeck/internal/llm/gemini"
	"github.com/paperdeck/paperdeck/internal/llm/openai"
	"github.com/paperdeck/paperdeck/internal/parser"
	"github.com/paperdeck/paperdeck/internal/repository/redis"
	"github.com/paperdeck/paperdeck/internal/repository/sqlite"
	"github.com/paperdeck/paperdeck/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, store *assets.Store, chatStore *sqlite.Store, redisClient *redis.Client) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(custommw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommw.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize LLM Router with providers
	llmRouter := llm.NewRouter(cfg.LLM.DefaultProvider)
	log.Info().Msgf("Initializing LLM providers. Default: %s", cfg.LLM.DefaultProvider)

	if cfg.LLM.OpenAI.APIKey != "" {
		llmRouter.RegisterProvider(openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
	}
	if cfg.LLM.Azure.APIKey != "" {
		llmRouter.RegisterProvider(azure.NewProvider(
			cfg.LLM.Azure.Endpoint,
			cfg.LLM.Azure.APIKey,
			cfg.LLM.Azure.Deployment,
			cfg.LLM.Azure.APIVersion,
		))
	}
	if cfg.LLM.Gemini.APIKey != "" {
		llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini))
	} else {
		log.Warn().Msg("Gemini API Key is empty, skipping registration")
	}

	// Optional redis-backed rate limiting and listing cache
	var directoryCache service.DirectoryCache
	var rateLimit func(http.Handler) http.Handler
	if redisClient != nil {
		directoryCache = redis.NewDirectoryCache(redisClient)
		rateLimit = custommw.NewRateLimitMiddleware(redis.NewRateLimiter(
			redisClient,
			cfg.RateLimit.RequestsPerMinute,
			cfg.RateLimit.Burst,
		)).Limit
	}

	// Initialize repositories
	sessionRepo := sqlite.NewSessionRepository(chatStore)
	messageRepo := sqlite.NewMessageRepository(chatStore)

	// Initialize services
	allowList := service.NewAllowList(cfg.Assets.AllowList)
	parserClient := parser.NewHTTPClient(cfg.Parser.URL, cfg.Parser.Timeout)
	userService := service.NewUserService(store, allowList)
	paperService := service.NewPaperService(store, directoryCache)
	ingestService := service.NewIngestService(store, parserClient, llmRouter, directoryCache)
	transformService := service.NewTransformService(store, llmRouter)
	chatService := service.NewChatService(store, llmRouter, messageRepo)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService)
	paperHandler := handler.NewPaperHandler(paperService, ingestService, cfg.Assets.MaxUploadMB)
	transformHandler := handler.NewTransformHandler(transformService)
	sessionHandler := handler.NewSessionHandler(sessionRepo, messageRepo, userService)
	chatHandler := handler.NewChatHandler(chatService, userService)

	allowListMiddleware := custommw.NewAllowListMiddleware(allowList)

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)

		r.Group(func(r chi.Router) {
			if rateLimit != nil {
				r.Use(rateLimit)
			}

			// User routes
			r.Get("/users/check", userHandler.Check)
			r.Post("/users", userHandler.Create)

			// Paper routes
			r.Route("/papers", func(r chi.Router) {
				// Routes keyed by the username query parameter
				r.Group(func(r chi.Router) {
					r.Use(allowListMiddleware.Require)
					r.Get("/", paperHandler.List)
					r.Get("/files", paperHandler.Files)
					r.Post("/ingest", paperHandler.Ingest)
					r.Get("/archive", paperHandler.Archive)
				})

				r.Post("/translate", transformHandler.Translate)
				r.Post("/explain", transformHandler.Explain)
				r.Post("/thread", transformHandler.Thread)
				r.Post("/markdown", paperHandler.SaveMarkdown)
				r.Post("/delete-file", paperHandler.DeleteFile)
				r.Post("/delete", paperHandler.Delete)
				r.Get("/seed", chatHandler.Seed)
			})

			// Session routes
			r.Route("/sessions", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(allowListMiddleware.Require)
					r.Post("/", sessionHandler.Create)
					r.Get("/", sessionHandler.List)
					r.Get("/{sessionID}/history", sessionHandler.History)
				})
				r.Post("/{sessionID}/messages", sessionHandler.SaveMessages)
				r.Post("/delete", sessionHandler.Delete)
			})

			// Chat
			r.Post("/chat", chatHandler.Ask)

			// Stored content (PDFs, images, markdown)
			r.Get("/contents/*", paperHandler.Content)
		})
	})

	return r
}
