package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
)

type importOptions struct {
	contentType string
}

func newImportCmd() *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Ingest a CSV or JSON file into DATABASE_URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.contentType, "content-type", "", "Declared media type (default: from the file extension, then sniffed)")
	return cmd
}

func runImport(cmd *cobra.Command, path string, opts importOptions) error {
	svc, cfg, closeStore, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	content, err := core.ReadPayload(f, cfg.Upload.MaxFileSize)
	if err != nil {
		return userError(err)
	}
	if core.IsBlank(content) {
		return userError(core.ErrEmptyPayload)
	}

	report, err := svc.Ingest(cmd.Context(), core.IngestRequest{
		Content:       content,
		ContentType:   opts.contentType,
		FileExtension: strings.ToLower(filepath.Ext(path)),
	})
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	printf(out, "Ingest %s (%s): %d parsed, %d valid, %d inserted, %d duplicates\n",
		report.IngestID, report.Format, report.Parsed, report.Valid, len(report.Inserted), report.Duplicates)
	for _, s := range report.Skipped {
		printf(out, "  skipped line %d: %s\n", s.Line, s.Reason)
	}
	for _, v := range report.Violations {
		printf(out, "  rejected %s: %s\n", v.Code(), v.Message)
	}
	return nil
}
