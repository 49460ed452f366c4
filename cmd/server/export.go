package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/yourusername/song-request-board/internal/backup"
	"github.com/yourusername/song-request-board/internal/config"
	"github.com/yourusername/song-request-board/internal/database"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all song requests as JSONL",
	Example: `  songboard export > requests.jsonl
  songboard export --out requests.jsonl`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		cfg, err := config.Load()
		if err != nil {
			return err
		}

		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()

		var w io.Writer = cmd.OutOrStdout()
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		n, err := backup.ExportJSONL(cmd.Context(), db, w)
		if err != nil {
			return err
		}
		if out != "" {
			log.Printf("Exported %d song requests to %s", n, out)
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "write to this file instead of stdout")
}
