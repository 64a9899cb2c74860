package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spigell/candidate-evaluator/internal/ai"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "candidate-evaluator"
)

type Config struct {
	JobFile       string            `mapstructure:"job-file"`
	CandidateFile string            `mapstructure:"candidate-file"`
	Instructions  string            `mapstructure:"instructions"`
	Output        string            `mapstructure:"output"`
	Evaluation    *EvaluationConfig `mapstructure:"evaluation"`
	AI            *ai.Config        `mapstructure:"ai"`
	Headhunter    *HeadhunterConfig `mapstructure:"headhunter"`
	History       *HistoryConfig    `mapstructure:"history"`
}

type EvaluationConfig struct {
	MaxConcurrency int           `mapstructure:"max-concurrency"`
	TraitTimeout   time.Duration `mapstructure:"trait-timeout"`
	Summary        bool          `mapstructure:"summary"`
}

type HeadhunterConfig struct {
	TokenFile string `mapstructure:"token-file"`
	UserAgent string `mapstructure:"user-agent"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "candidate-evaluator scores a candidate against the traits of a job with an AI model",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("headhunter.token-file", "HH_TOKEN_FILE"); err != nil {
		log.Fatalf("binding HH_TOKEN_FILE environment variable: %v", err)
	}
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	setDefaults()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is candidate-evaluator.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func setDefaults() {
	viper.SetDefault("evaluation.max-concurrency", 8)
	viper.SetDefault("evaluation.trait-timeout", 2*time.Minute)
	viper.SetDefault("evaluation.summary", true)
	viper.SetDefault("ai.provider", ai.ProviderGemini)
	viper.SetDefault("ai.gemini.max-retries", 1)
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "evaluations.db")
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

	// Everything can come from flags, so only an explicit config file is mandatory.
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

	if config.Evaluation == nil {
		config.Evaluation = &EvaluationConfig{}
	}
	if config.Headhunter == nil {
		config.Headhunter = &HeadhunterConfig{}
	}
	if config.History == nil {
		config.History = &HistoryConfig{}
	}

	return config, nil
}
