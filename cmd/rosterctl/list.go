package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/roster/internal/core"
)

type listOptions struct {
	page     int
	pageSize int
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, opts)
		},
	}
	cmd.Flags().IntVar(&opts.page, "page", 1, "Page number (1-based)")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 0, "Rows per page (default: PAGE_SIZE_DEFAULT)")
	return cmd
}

func runList(cmd *cobra.Command, opts listOptions) error {
	svc, _, closeStore, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer closeStore()

	page, err := svc.ListEmployees(cmd.Context(), opts.page, opts.pageSize)
	if err != nil {
		return userError(err)
	}

	out := cmd.OutOrStdout()
	if len(page.Records) > 0 {
		printf(out, "%s\n", renderTable(page.Records))
	}
	printf(out, "page %d of %d (%d employees, %d per page)\n",
		page.Page, max(page.TotalPages(), 1), page.Total, page.PageSize)
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// renderTable lays records out with one column per fixed field plus one per
// extra key seen on the page.
func renderTable(records []core.Record) string {
	var extras []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, k := range r.Extra.Keys() {
			if !seen[k] {
				seen[k] = true
				extras = append(extras, k)
			}
		}
	}

	headers := append([]string{"NAME", "EMAIL", "TEL", "JOINED"}, extras...)
	rows := make([][]string, len(records))
	for i, r := range records {
		row := []string{r.Name, r.Email, r.Phone, r.JoinedString()}
		for _, k := range extras {
			v, _ := r.Extra.Get(k)
			row = append(row, v)
		}
		rows[i] = row
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}
