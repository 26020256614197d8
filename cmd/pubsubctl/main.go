package main

import (
	"fmt"
	"os"

	"github.com/cuemby/warren-pubsub/pkg/log"
	"github.com/cuemby/warren-pubsub/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubsubctl",
	Short: "pubsubctl - distributed topic directory for pub/sub messaging",
	Long: `pubsubctl runs and drives a scheduler-mediated pub/sub topic
directory: workers publish and subscribe on the fast path directly to
each other, clients always go through the scheduler, and the scheduler
is the single source of truth for which topic has which subscribers.`,
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"pubsubctl version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Optional YAML config file overlaying defaults")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(demoCmd)
	rootCmd.AddCommand(versionCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
	metrics.SetVersion(Version)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pubsubctl version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime)
	},
}
