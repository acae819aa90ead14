package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MeKo-Tech/epistola/internal/config"
	"github.com/MeKo-Tech/epistola/internal/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configLoader *config.Loader
	globalConfig *config.Config
	cfgFile      string
)

var rootCmd = &cobra.Command{
	Use:   "epistola",
	Short: "Language identification and named entity tagging for TEI letters",
	Long: `epistola annotates TEI-encoded letters of the early modern period.

Every paragraph is split into sentences, person and place names are tagged
from entity lists (with Latin case endings and a fuzzy fallback), and each
sentence is labelled German or Latin by character n-gram models. A tagger
evaluation against hand-annotated letters and an HTTP API are included.

Examples:
  epistola identify "Gratia et pax a domino."
  epistola tag "Ich habe euren Brief von Heinrich Bullinger empfangen."
  epistola annotate letters/ --recursive --output-dir annotated
  epistola serve --port 8080`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := loadConfig(); err != nil {
			return err
		}
		cfg := GetConfig()
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel(cfg.LogLevel, cfg.Verbose),
		})))
		return nil
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "epistola version "+version.String())
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// GetRootCommand returns the root command for tests that must not exit.
func GetRootCommand() *cobra.Command {
	return rootCmd
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "",
		"config file (default is search in ., $HOME, $HOME/.config/epistola, /etc/epistola)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("lang-dir", "data/lang", "directory holding one training corpus per language (de.txt, la.txt)")
	pf.StringSlice("languages", []string{"DE", "LA"}, "language codes to train, in tie-break order")
	pf.String("entity-dir", "data/entities", "directory holding extracted_persons.txt and extracted_places.txt")
	pf.Bool("version", false, "print version information and exit")

	for key, flag := range map[string]string{
		"verbose":            "verbose",
		"log_level":          "log-level",
		"language.data_dir":  "lang-dir",
		"language.languages": "languages",
		"entities.dir":       "entity-dir",
	} {
		_ = viper.BindPFlag(key, pf.Lookup(flag))
	}
}

// logLevel maps the configured level name to a slog level. Verbose wins.
func logLevel(name string, verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// loadConfig reads the config file, the environment and the bound flags.
func loadConfig() error {
	configLoader = config.NewLoader()
	cfg, err := configLoader.LoadWithFile(cfgFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	globalConfig = cfg
	return nil
}

// GetConfig returns the configuration with the current flag values applied.
func GetConfig() *config.Config {
	if globalConfig == nil {
		if err := loadConfig(); err != nil {
			slog.Error("Falling back to default configuration", "error", err)
			d := config.DefaultConfig()
			return &d
		}
	}

	// Flag values can change after loading, so decode the bound viper again.
	var cfg config.Config
	if err := GetConfigLoader().GetViper().Unmarshal(&cfg); err != nil {
		slog.Warn("Re-reading configuration failed", "error", err)
		return globalConfig
	}
	return &cfg
}

// GetConfigLoader returns the loader behind the current configuration.
func GetConfigLoader() *config.Loader {
	if configLoader == nil {
		configLoader = config.NewLoader()
	}
	return configLoader
}
