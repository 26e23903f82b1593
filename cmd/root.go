package cmd

import (
	"os"
	"path/filepath"

	"github.com/jsphweid/chartview/config"
	"github.com/jsphweid/chartview/constants"
	"github.com/jsphweid/chartview/logger"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "chartview",
	Short: "Rhythm game chart page viewer",
	Long: `chartview loads a chart (pages, tempo changes and notes) and shows
the notes and tempo events that fall within one page at a time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", constants.DefaultConfigFile, "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", constants.DefaultLogLevel, "log level (debug, info, warn, error)")
}

// loadConfig layers defaults, the config file, the environment and flags,
// in that order.
func loadConfig(cmd *cobra.Command) error {
	optional := !cmd.Flags().Changed("config")
	c, err := config.ReadConfig(os.DirFS(filepath.Dir(configFile)), filepath.Base(configFile), optional)
	if err != nil {
		return err
	}
	if err := c.ApplyEnv(); err != nil {
		return err
	}
	if cmd.Flags().Changed("log-level") {
		c.LogLevel = logLevel
	}
	applyServeFlags(cmd, c)
	if err := c.Validate(); err != nil {
		return err
	}
	if err := logger.InitLogger(c.LogLevel); err != nil {
		return err
	}
	cfg = c
	return nil
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
