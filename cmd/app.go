package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/ai/gemini"
	"github.com/spigell/cv-matcher/internal/ai/offline"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/secrets"
	"github.com/spigell/cv-matcher/internal/state"
	"github.com/spigell/cv-matcher/internal/storage"
	"github.com/spigell/cv-matcher/internal/storage/file"
	"github.com/spigell/cv-matcher/internal/storage/memory"
	"github.com/spigell/cv-matcher/internal/storage/redis"
	"github.com/spigell/cv-matcher/internal/storage/sqlite"
)

const (
	providerGemini  = "gemini"
	providerOffline = "offline"
	geminiKeyEnv    = "GEMINI_API_KEY"
)

// application holds everything a command needs, built once per invocation.
type application struct {
	config   *Config
	logger   *zap.Logger
	store    storage.Store
	state    *state.Manager
	scorer   ai.Scorer
	enricher ai.Enricher
	matcher  *matching.Service
}

// newApplication builds the logger, opens the store and loads the state.
// The AI provider is only built when withAI is set.
func newApplication(ctx context.Context, cmd *cobra.Command, withAI bool) (*application, error) {
	lg, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		return nil, fmt.Errorf("getting a config: %w", err)
	}

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(redactConfig(config), "", "  ")
	lg.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	store, err := openStore(ctx, config.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening %s storage: %w", config.Storage.Backend, err)
	}
	lg.Debug("storage opened", zap.String("location", storeLocation(store)))

	a := &application{
		config: config,
		logger: lg,
		store:  store,
		state:  state.New(store, lg.Named("state")),
	}

	report := a.state.Load(ctx)
	if notice := report.Notice(); notice != "" {
		cmd.PrintErrln(notice)
	}

	if withAI {
		if err := a.buildAI(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

func (a *application) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}

func (a *application) buildAI(ctx context.Context) error {
	provider := strings.ToLower(strings.TrimSpace(a.config.AI.Provider))

	switch provider {
	case providerOffline:
		a.useOffline()
	case providerGemini, "":
		err := a.useGemini(ctx)
		if err == nil {
			break
		}
		if provider == providerGemini {
			return err
		}
		a.logger.Warn("gemini is not configured; using the offline scorer",
			zap.Error(err),
			zap.String("hint", "set ai.gemini.api-key-file, CV_MATCHER_AI_GEMINI_API_KEY or GEMINI_API_KEY"),
		)
		a.useOffline()
	default:
		return fmt.Errorf("unsupported ai provider: %s", a.config.AI.Provider)
	}

	adapter := matching.NewAdapter(a.scorer, a.state.Settings, a.config.Language, a.logger.Named("adapter"))
	executor := matching.NewExecutor(adapter, a.config.Matching, a.logger.Named("executor"))
	a.matcher = matching.NewService(a.state, executor, a.logger.Named("matching"))
	return nil
}

func (a *application) useOffline() {
	a.scorer = offline.Scorer{}
	a.enricher = offline.Enricher{}
	a.logger.Debug("ai provider selected", logger.CommonFields(providerOffline, "")...)
}

func (a *application) useGemini(ctx context.Context) error {
	cfg := a.config.AI.Gemini

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
		Env:   geminiKeyEnv,
	})
	if err != nil {
		return err
	}

	aiLogger := logger.WithCommonFields(a.logger, providerGemini, cfg.Model)

	generator, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:            apiKey,
		Model:             cfg.Model,
		MaxRetries:        cfg.MaxRetries,
		RequestsPerSecond: cfg.RequestsPerSecond,
	}, aiLogger.With(zap.Int("ai_retry_attempts", cfg.MaxRetries)))
	if err != nil {
		return err
	}

	a.scorer = gemini.NewScorer(generator, cfg.MaxLogLength, aiLogger)
	a.enricher = gemini.NewEnricher(generator, aiLogger)
	a.logger.Debug("ai provider selected", logger.CommonFields(providerGemini, generator.Model())...)
	return nil
}

func openStore(ctx context.Context, cfg *StorageConfig) (storage.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case storage.BackendFile, "":
		return file.New(cfg.Path)
	case storage.BackendSQLite:
		return sqlite.New(cfg.Path)
	case storage.BackendRedis:
		return redis.New(ctx, cfg.Redis)
	case storage.BackendMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// storeLocation describes where the store keeps its data.
func storeLocation(s storage.Store) string {
	switch st := s.(type) {
	case *file.Store:
		return st.Dir()
	case *sqlite.Store:
		return st.Path()
	case *redis.Store:
		return st.Key("*")
	default:
		return "memory"
	}
}

// redactConfig hides secrets before the config is logged.
func redactConfig(config *Config) Config {
	out := *config
	if config.AI != nil && config.AI.Gemini != nil {
		aiCfg := *config.AI
		g := *config.AI.Gemini
		if g.APIKey != "" {
			g.APIKey = "***"
		}
		aiCfg.Gemini = &g
		out.AI = &aiCfg
	}
	if config.Storage != nil {
		st := *config.Storage
		if st.Redis.Password != "" {
			st.Redis.Password = "***"
		}
		out.Storage = &st
	}
	return out
}
