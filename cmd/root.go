package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/hh-matcher/internal/cache"
	"github.com/spigell/hh-matcher/internal/engine"
	"github.com/spigell/hh-matcher/internal/provider"
	"github.com/spigell/hh-matcher/internal/resilience"
)

const (
	app = "hh-matcher"
)

type Config struct {
	Engine     engine.Config        `mapstructure:"engine"`
	Cache      cache.Config         `mapstructure:"cache"`
	Similarity SimilarityConfig     `mapstructure:"similarity"`
	Geo        GeoConfig            `mapstructure:"geo"`
	Resilience provider.GuardConfig `mapstructure:"resilience"`
	// Dictionary overrides the embedded synonym and hierarchy tables.
	Dictionary string `mapstructure:"dictionary"`
}

type SimilarityConfig struct {
	// Provider is local or gemini.
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key" json:"-"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	// Mode is embedding or prompt.
	Mode         string `mapstructure:"mode"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type GeoConfig struct {
	// Provider is local or osrm.
	Provider string      `mapstructure:"provider"`
	OSRM     *OSRMConfig `mapstructure:"osrm"`
}

type OSRMConfig struct {
	URL       string        `mapstructure:"url"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "hh-matcher scores how well a candidate fits a job opening",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("similarity.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("cache.redis.password_file", "MATCHER_REDIS_PASSWORD_FILE"); err != nil {
		log.Fatalf("binding MATCHER_REDIS_PASSWORD_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(loadEnv, initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is hh-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

// loadEnv reads .env from the working directory when present.
func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}
}

func initConfig() {
	// Config needed only for the match command. Without a config file the defaults apply.
	if matchCmd.CalledAs() == "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		// We can't proceed if the config file parsed with error.
		log.Fatal(err)
	}
}

func defaultConfig() *Config {
	return &Config{
		Engine:     engine.DefaultConfig(),
		Cache:      cache.DefaultConfig(),
		Similarity: SimilarityConfig{Provider: "local"},
		Geo:        GeoConfig{Provider: "local"},
		Resilience: provider.GuardConfig{
			Breaker:     resilience.DefaultBreakerConfig(),
			Retry:       resilience.DefaultRetryConfig(),
			CallTimeout: 1500 * time.Millisecond,
		},
	}
}

func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return config, err
	}

	return config, nil
}
