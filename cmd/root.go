package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pders01/git-closest/internal/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "closest",
	Short: "Find the commit an untracked snapshot was most likely taken from",
	Long: `closest compares a directory that lives outside version control (a
deployed copy, an unpacked tarball, a vendored tree) against every commit
of a git repository and reports the commit whose tree is the closest match.

Files are matched by content digest. Each commit is scored as
matches - mismatches - files present on one side only, and the highest
score wins (ties go to the commit enumerated first).

The repository is checked out commit by commit. Its original checkout is
restored when the search ends, fails, or is interrupted.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/closest/config.toml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (text, json)")

	viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag(config.KeyLogFormat, rootCmd.PersistentFlags().Lookup("log-format"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("closest")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		log.WithField("path", viper.ConfigFileUsed()).Debug("using config file")
	}
}

// configDir returns $HOME/.config/closest
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "closest"), nil
}

// setupLogging configures the standard logrus logger from the loaded config.
// Logs go to stderr so stdout stays usable for results.
func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(config.GetLogLevel())
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	switch config.GetLogFormat() {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	case "text", "":
		log.SetFormatter(&log.TextFormatter{})
	default:
		return fmt.Errorf("invalid log format: %s (must be: text, json)", config.GetLogFormat())
	}

	log.SetLevel(level)
	log.SetOutput(cmd.ErrOrStderr())
	return nil
}
