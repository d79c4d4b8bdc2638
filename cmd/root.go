/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	apiURL    string
	tokenFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gamehub",
	Short: "GameHub backend server and game client",
	Long: `GameHub serves the accounts, stats and game catalog API and ships a
terminal client for the reference games. Usage:

	gamehub server
	gamehub login --email you@example.com
	gamehub play snake
`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	defaultAPI := os.Getenv("GAMEHUB_API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:3001"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPI, "base URL of the GameHub API")
	rootCmd.PersistentFlags().StringVar(&tokenFile, "token-file", "", "where the session token is kept (default: user config dir)")
}
