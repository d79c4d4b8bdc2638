/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/gamehub/apiserver/config"
	"github.com/gamehub/apiserver/internal/storage"
	"github.com/spf13/cobra"
)

// assetsCmd represents the assets command
var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "Manage game cover images in object storage",
}

var assetsUploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload image files under their base names",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assets, err := openAssets(cmd)
		if err != nil {
			return err
		}

		for _, name := range args {
			if err := uploadImage(cmd, assets, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s\n", filepath.Base(name))
		}
		return nil
	},
}

var assetsRmCmd = &cobra.Command{
	Use:   "rm <name>...",
	Short: "Delete images by base name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		assets, err := openAssets(cmd)
		if err != nil {
			return err
		}

		for _, name := range args {
			if err := assets.DeleteImage(cmd.Context(), name); err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(assetsCmd)
	assetsCmd.AddCommand(assetsUploadCmd, assetsRmCmd)
}

func openAssets(cmd *cobra.Command) (*storage.Storage, error) {
	cfg := config.LoadConfig()
	assets, err := storage.NewFromConfig(cmd.Context(), cfg.Storage)
	if err != nil {
		return nil, err
	}
	if assets == nil {
		return nil, errors.New("STORAGE_BACKEND is required (minio or gcs)")
	}
	return assets, nil
}

func uploadImage(cmd *cobra.Command, assets *storage.Storage, name string) error {
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := assets.PutImage(cmd.Context(), filepath.Base(name), f, info.Size(), contentType); err != nil {
		return fmt.Errorf("upload %s: %w", name, err)
	}
	return nil
}
