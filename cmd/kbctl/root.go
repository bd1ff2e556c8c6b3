package main

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/knowledge"
	"github.com/shuoxuer/shuoxuer-website/internal/llm/registry"
	"github.com/shuoxuer/shuoxuer-website/internal/logging"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/jsonfile"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/redis"
	"github.com/spf13/cobra"
)

var (
	cfg              *config.Config
	db               *jsonfile.DB
	knowledgeService *knowledge.Service
	logCloser        io.Closer
	redisClient      *redis.Client
)

var rootCmd = &cobra.Command{
	Use:          "kbctl",
	Short:        "Maintain the coach knowledge base",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		if logCloser, err = logging.Setup(cfg.Logging); err != nil {
			return err
		}
		if db, err = jsonfile.NewDB(cfg.Storage.DataDir); err != nil {
			return fmt.Errorf("failed to open data dir: %w", err)
		}

		// The embedding cache stays an untyped nil without Redis
		var cache knowledge.EmbeddingCache
		if cfg.Redis.Enabled {
			redisClient, err = redis.NewClient(cmd.Context(), cfg.Redis)
			if err != nil {
				log.Warn().Err(err).Msg("Redis unavailable, embedding without cache")
			} else {
				cache = redis.NewEmbeddingCache(redisClient, cfg.Knowledge.CacheTTL)
			}
		}

		router := registry.New(cfg.LLM)
		knowledgeService = knowledge.NewService(
			jsonfile.NewKnowledgeRepository(db),
			registry.Embedder(router, cfg.LLM, cache, cfg.Knowledge.EmbeddingTimeout),
			knowledge.Options{
				DefaultReviewer: cfg.Knowledge.DefaultReviewer,
				EmbedTimeout:    cfg.Knowledge.EmbeddingTimeout,
			},
		)
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if redisClient != nil {
			redisClient.Close()
		}
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

func init() {
	rootCmd.SetContext(context.Background())
}
