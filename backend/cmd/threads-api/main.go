package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configFolder string

// rootCmd runs the API server when no subcommand is given
var rootCmd = &cobra.Command{
	Use:          "threads-api",
	Short:        "Threaded discussion API",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE:  runServe,
}

// reconcileCmd repairs denormalized id lists once and exits
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reference reconciliation pass",
	Long: `Rebuild every user's thread list and every thread's child list from
author and parent ids. Entries that are still valid keep their position.`,
	RunE: runReconcile,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	rootCmd.AddCommand(serveCmd, reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
