package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediascribe/internal/report"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "report <workspace>",
		Short: "Write an HTML progress report for a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}
			doc, err := store.Document(cmd.Context(), true)
			if err != nil {
				return err
			}

			if outPath == "" {
				base := strings.TrimSuffix(store.Path(), filepath.Ext(store.Path()))
				outPath = base + ".html"
			}

			file, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create report file: %w", err)
			}
			defer file.Close()

			if err := report.Write(file, store.Path(), doc); err != nil {
				return fmt.Errorf("render report: %w", err)
			}
			if err := file.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (default: alongside the document)")
	return cmd
}
