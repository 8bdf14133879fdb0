package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/storage"
	"github.com/spigell/cv-matcher/internal/storage/redis"
)

const (
	app       = "cv-matcher"
	envPrefix = "CV_MATCHER"
)

type Config struct {
	Language string           `mapstructure:"language"`
	Storage  *StorageConfig   `mapstructure:"storage"`
	AI       *AIConfig        `mapstructure:"ai"`
	Matching matching.Options `mapstructure:"matching"`
	Server   *ServerConfig    `mapstructure:"server"`
}

type StorageConfig struct {
	Backend string       `mapstructure:"backend"`
	Path    string       `mapstructure:"path"`
	Redis   redis.Config `mapstructure:"redis"`
}

type AIConfig struct {
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey            string  `mapstructure:"api-key"`
	APIKeyFile        string  `mapstructure:"api-key-file"`
	Model             string  `mapstructure:"model"`
	MaxRetries        int     `mapstructure:"max-retries"`
	RequestsPerSecond float64 `mapstructure:"requests-per-second"`
	MaxLogLength      int     `mapstructure:"max-log-length"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "cv-matcher scores candidate CVs against job descriptions with an LLM and keeps the results",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("storage", "", "storage backend: file, sqlite, redis or memory")
	rootCmd.PersistentFlags().String("data-dir", "", "directory for the file and sqlite backends")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("storage"))
	viper.BindPFlag("storage.path", rootCmd.PersistentFlags().Lookup("data-dir"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("language", "en")
	viper.SetDefault("storage.backend", storage.BackendFile)
	viper.SetDefault("storage.path", "./data")
	viper.SetDefault("storage.redis.addr", "localhost:6379")
	viper.SetDefault("storage.redis.password", "")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.prefix", redis.DefaultPrefix)
	viper.SetDefault("ai.provider", "")
	viper.SetDefault("ai.gemini.api-key", "")
	viper.SetDefault("ai.gemini.api-key-file", "")
	viper.SetDefault("ai.gemini.model", "")
	viper.SetDefault("ai.gemini.max-retries", 0)
	viper.SetDefault("ai.gemini.requests-per-second", 0)
	viper.SetDefault("ai.gemini.max-log-length", 0)
	viper.SetDefault("matching.concurrency", 0)
	viper.SetDefault("matching.pair-timeout", matching.DefaultPairTimeout)
	viper.SetDefault("server.addr", ":8080")
}

func initConfig() {
	// A missing .env is normal.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicit --config must exist; the default one is optional.
		if cfgFile != "" || !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("reading config: %w", err))
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Server == nil {
		config.Server = &ServerConfig{}
	}
	if config.Matching.PairTimeout < 0 {
		config.Matching.PairTimeout = 0
	}

	return config, nil
}
