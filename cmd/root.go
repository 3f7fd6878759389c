package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "profile-featurizer"
)

type Config struct {
	SchemaFile  string              `mapstructure:"schema-file"`
	Labels      []string            `mapstructure:"labels"`
	YearGrid    *YearGridConfig     `mapstructure:"year-grid"`
	Translate   *TranslateConfig    `mapstructure:"translate"`
	State       *StateConfig        `mapstructure:"state"`
	Fetch       *FetchConfig        `mapstructure:"fetch"`
	Classifiers map[string][]string `mapstructure:"classifiers"`
}

type YearGridConfig struct {
	Start int `mapstructure:"start"`
	End   int `mapstructure:"end"`
}

type TranslateConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	TargetLanguage string        `mapstructure:"target-language"`
	MaxRetries     int           `mapstructure:"max-retries"`
	Backoff        time.Duration `mapstructure:"backoff"`
	Gemini         *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

type StateConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

type FetchConfig struct {
	Source     string            `mapstructure:"source"`
	Command    []string          `mapstructure:"command"`
	Output     string            `mapstructure:"output"`
	HeadHunter *HeadHunterConfig `mapstructure:"headhunter"`
}

type HeadHunterConfig struct {
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "profile-featurizer turns scraped professional profiles into fixed-width feature vectors",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("translate.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("fetch.headhunter.token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is profile-featurizer.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("labels", []string{"NLP", "CV", "Tool"})
	viper.SetDefault("year-grid.start", 1980)
	viper.SetDefault("year-grid.end", 2020)
	viper.SetDefault("translate.enabled", true)
	viper.SetDefault("translate.target-language", "en")
	viper.SetDefault("translate.max-retries", 0)
	viper.SetDefault("translate.backoff", 5*time.Second)
	viper.SetDefault("translate.gemini.max-log-length", 200)
	viper.SetDefault("state.backend", "file")
	viper.SetDefault("state.path", "data/encoders")
	viper.SetDefault("fetch.source", "file")
	viper.SetDefault("fetch.command", []string{"node", "./crawler/profileCrawler.js"})
	viper.SetDefault("fetch.output", "data/profile.json")
}

func initConfig() {
	if versionCmd.CalledAs() != "" {
		return
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// A missing default config is fine, every key has a default.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
