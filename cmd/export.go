/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/academic-portal/apiserver/internal/services"
	"github.com/academic-portal/apiserver/internal/storage"
	"github.com/academic-portal/apiserver/internal/store"
	"github.com/academic-portal/apiserver/types"
	"github.com/spf13/cobra"
)

var (
	exportOut    string
	exportUpload bool
	fetchKey     string
	fetchOut     string
)

// exportCmd dumps every user and course straight from the configured store.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all users and courses as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}

		st, err := store.Open(cmd.Context(), cfg.Database)
		if err != nil {
			return err
		}
		defer st.Close()

		snapshot, err := services.NewAccountService(st).ExportSnapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}

		if exportUpload {
			archive, err := storage.NewFromConfig(cmd.Context(), cfg.Storage)
			if err != nil {
				return err
			}
			key, err := archive.Save(cmd.Context(), snapshot, time.Now())
			if err != nil {
				return err
			}
			log.Info().Str("bucket", archive.Bucket()).Str("key", key).
				Int("users", len(snapshot.Users)).Int("courses", len(snapshot.Courses)).
				Msg("export uploaded")
			if exportOut == "" {
				return nil
			}
		}
		return writeSnapshot(cmd.OutOrStdout(), exportOut, snapshot)
	},
}

var exportFetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download an archived export",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadRuntime()
		if err != nil {
			return err
		}
		archive, err := storage.NewFromConfig(cmd.Context(), cfg.Storage)
		if err != nil {
			return err
		}

		key := fetchKey
		if key == "" {
			key = storage.ExportKey(time.Now())
		}
		snapshot, err := archive.Load(cmd.Context(), key)
		if err != nil {
			return err
		}
		return writeSnapshot(cmd.OutOrStdout(), fetchOut, snapshot)
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportFetchCmd)

	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	exportCmd.Flags().BoolVar(&exportUpload, "upload", false, "upload to the configured object storage")
	exportFetchCmd.Flags().StringVar(&fetchKey, "key", "", "object key (default: today's export)")
	exportFetchCmd.Flags().StringVarP(&fetchOut, "out", "o", "", "write to file instead of stdout")
}

// writeSnapshot writes indented JSON to path, or to stdout when path is empty.
func writeSnapshot(stdout io.Writer, path string, snapshot types.Snapshot) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snapshot)
}
