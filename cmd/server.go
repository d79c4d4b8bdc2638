/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"time"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/logger"
	"github.com/gamehub/apiserver/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the GameHub backend server",
	Long: `Starts the GameHub backend server. Usage:

	gamehub server
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log, err := logger.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		srv, err := server.New(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("failed to start server", zap.Error(err))
			return err
		}

		errc := make(chan error, 1)
		go func() {
			errc <- srv.Start()
		}()

		select {
		case err := <-errc:
			if err != nil {
				log.Error("server error", zap.Error(err))
			}
			_ = srv.Shutdown(context.Background())
			return err
		case <-cmd.Context().Done():
		}

		log.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
