package main

import (
	"github.com/spf13/cobra"

	applog "roomdisplay/internal/log"
)

const version = "0.1.0"

var (
	flagConfigPath string
	flagDebug      bool
)

var rootCmd = &cobra.Command{
	Use:           "roomdisplay",
	Short:         "Conference room booking display server",
	Long:          "Shows the current or next booking for a single conference room, polled from the Microsoft Bookings API.",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if flagDebug {
			applog.SetLevel(applog.LevelDebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "/etc/roomdisplay/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
}
