package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/api/handler"
	customMiddleware "github.com/shuoxuer/shuoxuer-website/internal/api/middleware"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/extract"
	"github.com/shuoxuer/shuoxuer-website/internal/knowledge"
	"github.com/shuoxuer/shuoxuer-website/internal/llm/registry"
	"github.com/shuoxuer/shuoxuer-website/internal/media"
	"github.com/shuoxuer/shuoxuer-website/internal/prompt"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/jsonfile"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/objectstore"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/redis"
	"github.com/shuoxuer/shuoxuer-website/internal/security"
	"github.com/shuoxuer/shuoxuer-website/internal/service"
)

// NewRouter creates and configures the HTTP router. redisClient and
// mediaStore may be nil.
func NewRouter(cfg *config.Config, db *jsonfile.DB, redisClient *redis.Client, mediaStore objectstore.Store) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	if cfg.Metrics.Enabled {
		r.Use(customMiddleware.Metrics)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize repositories
	sessionRepo := jsonfile.NewSessionRepository(db)
	archiveRepo := jsonfile.NewArchiveRepository(db)
	historyRepo := jsonfile.NewHistoryRepository(db)
	knowledgeRepo := jsonfile.NewKnowledgeRepository(db)
	docRepo := jsonfile.NewDocumentationRepository(db)

	// Initialize LLM Router with providers
	llmRouter := registry.New(cfg.LLM)

	// The embedding cache stays an untyped nil without Redis
	var (
		embeddingCache knowledge.EmbeddingCache
		redisCache     *redis.EmbeddingCache
		rateLimiter    customMiddleware.Limiter
	)
	if redisClient != nil {
		redisCache = redis.NewEmbeddingCache(redisClient, cfg.Knowledge.CacheTTL)
		embeddingCache = redisCache
		rateLimiter = redis.NewRateLimiter(redisClient, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	} else {
		rateLimiter = customMiddleware.NewLocalLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	// Initialize services
	knowledgeService := knowledge.NewService(
		knowledgeRepo,
		registry.Embedder(llmRouter, cfg.LLM, embeddingCache, cfg.Knowledge.EmbeddingTimeout),
		knowledge.Options{
			DefaultReviewer: cfg.Knowledge.DefaultReviewer,
			EmbedTimeout:    cfg.Knowledge.EmbeddingTimeout,
		},
	)

	var extractor extract.Extractor = extract.Noop{}
	if cfg.Chat.ExtractionEnabled {
		extractor = extract.NewLinker(knowledgeService, docRepo)
	}

	builder := prompt.NewBuilder(loadVocabulary(cfg.Prompt.VocabularyFile))

	sampler := media.NewSampler(
		media.NewFFmpegDecoder(cfg.Media.FFmpegPath, cfg.Media.FFprobePath),
		media.Options{
			Frames:      cfg.Media.Frames,
			Width:       cfg.Media.Width,
			Height:      cfg.Media.Height,
			JPEGQuality: cfg.Media.JPEGQuality,
			Workers:     cfg.Media.Workers,
		},
	)

	var store service.MediaStore
	if mediaStore != nil {
		store = mediaStore
	}

	analysisService := service.NewAnalysisService(llmRouter, sampler, builder, archiveRepo, historyRepo, store)
	chatService := service.NewChatService(
		sessionRepo,
		llmRouter,
		analysisService,
		knowledgeService,
		extractor,
		builder,
		service.ChatOptions{
			TopK:            cfg.Knowledge.ChatTopK,
			HistoryLimit:    cfg.Chat.HistoryLimit,
			GreetingEnabled: cfg.Chat.GreetingEnabled,
			GreetingCity:    cfg.Chat.GreetingCity,
			Location:        loadLocation(cfg.Chat.Timezone),
			ExtractionHint:  cfg.Chat.ExtractionEnabled,
		},
	)
	archiveService := service.NewArchiveService(archiveRepo)
	statsService := service.NewStatsService(historyRepo)

	// Initialize handlers
	maxUpload := cfg.Server.MaxUploadMB << 20
	analysisHandler := handler.NewAnalysisHandler(analysisService, maxUpload)
	chatHandler := handler.NewChatHandler(chatService, maxUpload)
	sessionHandler := handler.NewSessionHandler(chatService)
	archiveHandler := handler.NewArchiveHandler(archiveService)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService, cfg.Knowledge.TopK)
	docHandler := handler.NewDocumentationHandler(docRepo)
	dashboardHandler := handler.NewDashboardHandler(statsService)

	// Reviewer auth and rate limiting
	jwtManager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.ReviewerTTL)
	authMiddleware := customMiddleware.NewAuthMiddleware(jwtManager, cfg.Auth.RequireReviewer)
	rateLimitMiddleware := customMiddleware.NewRateLimitMiddleware(rateLimiter)

	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler())
	}

	if local, ok := mediaStore.(*objectstore.Local); ok {
		prefix := strings.TrimRight(cfg.Storage.Media.PublicURL, "/")
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(local.Dir()))))
	}

	readiness := map[string]handler.Pinger{"data": db}
	if redisClient != nil {
		readiness["redis"] = redisClient
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(readiness))

		r.Get("/llm-providers", handler.ListLLMProviders(llmRouter))
		r.Get("/dashboard/stats", dashboardHandler.Stats)

		// Model-backed routes are rate limited per client
		r.Group(func(r chi.Router) {
			if cfg.RateLimit.Enabled {
				r.Use(rateLimitMiddleware.Limit)
			}

			r.Post("/analyze/video", analysisHandler.Video)
			r.Post("/analysis/style", analysisHandler.Style)
			r.Post("/chat", chatHandler.Send)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.List)
			r.Get("/{sessionID}", sessionHandler.Get)
			r.Delete("/{sessionID}", sessionHandler.Delete)
		})

		r.Route("/archives", func(r chi.Router) {
			r.Get("/", archiveHandler.List)
			r.Get("/{archiveID}", archiveHandler.Get)
			r.Delete("/{archiveID}", archiveHandler.Delete)
		})

		r.Route("/knowledge", func(r chi.Router) {
			r.Post("/add", knowledgeHandler.Add)
			r.Get("/list", knowledgeHandler.List)
			r.Post("/search", knowledgeHandler.Search)

			// Moderation
			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.Authenticate)

				r.Put("/{knowledgeID}/approve", knowledgeHandler.Approve)
				r.Put("/{knowledgeID}/reject", knowledgeHandler.Reject)
				r.Put("/{knowledgeID}", knowledgeHandler.Update)
				r.Delete("/{knowledgeID}", knowledgeHandler.Delete)
			})
		})

		r.Route("/documentation", func(r chi.Router) {
			r.Get("/", docHandler.List)
			r.Get("/{docID}", docHandler.Get)
			r.With(authMiddleware.Authenticate).Put("/{docID}/section", docHandler.UpdateSection)
		})

		if redisCache != nil {
			r.With(authMiddleware.Authenticate).Post("/cache/flush", handler.FlushCache(redisCache))
		}
	})

	return r
}

// loadVocabulary returns the terminology override, or nil for the built-in list
func loadVocabulary(path string) prompt.Vocabulary {
	if path == "" {
		return nil
	}
	v, err := prompt.LoadVocabulary(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Using built-in vocabulary")
		return nil
	}
	return v
}

func loadLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn().Err(err).Str("timezone", name).Msg("Unknown timezone, using local time")
		return time.Local
	}
	return loc
}
