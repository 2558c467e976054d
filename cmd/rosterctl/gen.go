package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/datagen"
)

type genOptions struct {
	count  int
	format string
	output string
	seed   uint64
}

func newGenCmd() *cobra.Command {
	var opts genOptions

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate synthetic employee files",
		Long: `Writes employees.csv and/or employees.json with random Korean employee
contacts. The CSV uses the loose "name, email tel, yyyy.MM.dd" line shape.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case "csv", "json", "both":
			default:
				return fmt.Errorf("invalid --format %q: want csv, json or both", opts.format)
			}
			if opts.count < 1 {
				return fmt.Errorf("--count must be positive")
			}
			if !cmd.Flags().Changed("seed") {
				opts.seed = uint64(time.Now().UnixNano())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.count, "count", 10, "Number of employees")
	cmd.Flags().StringVar(&opts.format, "format", "both", "Output format: csv, json or both")
	cmd.Flags().StringVar(&opts.output, "output", ".", "Output directory")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed (default: time based)")
	return cmd
}

func runGen(cmd *cobra.Command, opts genOptions) error {
	if err := os.MkdirAll(opts.output, 0o755); err != nil {
		return err
	}
	employees := datagen.New(opts.seed).Employees(opts.count)

	write := func(name string, fn func(f *os.File) error) error {
		path := filepath.Join(opts.output, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		printf(cmd.OutOrStdout(), "Generated %d employees -> %s\n", opts.count, path)
		return nil
	}

	if opts.format == "csv" || opts.format == "both" {
		if err := write("employees.csv", func(f *os.File) error { return datagen.WriteCSV(f, employees) }); err != nil {
			return err
		}
	}
	if opts.format == "json" || opts.format == "both" {
		if err := write("employees.json", func(f *os.File) error { return datagen.WriteJSON(f, employees) }); err != nil {
			return err
		}
	}
	return nil
}
