package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediascribe/internal/workspace"
)

func newInitCommand(ctx *commandContext) *cobra.Command {
	var sourceDir string
	var mode string

	cmd := &cobra.Command{
		Use:   "init <workspace>",
		Short: "Create a workspace document for a source directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.resolveWorkspacePath(args[0])
			if err != nil {
				return err
			}

			store, err := ctx.registry.Create(path, func(opts *workspace.Options) {
				opts.SourceDirectory = sourceDir
				opts.ProcessingMode = mode
			})
			if err != nil {
				return err
			}

			progress, err := store.Progress(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workspace %s ready (batch %s)\n", store.Path(), progress.BatchID)
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceDir, "source", "", "Directory containing the files to describe")
	cmd.Flags().StringVar(&mode, "mode", "images", "Processing mode (images, videos, mixed)")
	return cmd
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status <workspace>",
		Short: "Show workspace progress and batch statistics",
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

			progress := doc.WorkflowProgress
			rows := [][]string{
				{"Total", strconv.Itoa(progress.TotalFiles)},
				{"Completed", strconv.Itoa(progress.CompletedFiles)},
				{"Failed", strconv.Itoa(progress.FailedFiles)},
				{"Skipped", strconv.Itoa(progress.SkippedFiles)},
				{"Complete", strconv.FormatBool(progress.IsComplete)},
			}
			if progress.LastProcessed != "" {
				rows = append(rows, []string{"Last processed", progress.LastProcessed})
			}
			if progress.ResumeCheckpoint != "" {
				rows = append(rows, []string{"Resume checkpoint", progress.ResumeCheckpoint})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderKeyValueTable("Progress", "Value", rows))

			times := doc.BatchStatistics.ProcessingTimes
			if progress.CompletedFiles > 0 {
				fmt.Fprintln(out, renderKeyValueTable("Timing", "Milliseconds", [][]string{
					{"Average", strconv.FormatInt(times.AverageMs, 10)},
					{"Fastest", strconv.FormatInt(times.FastestMs, 10)},
					{"Slowest", strconv.FormatInt(times.SlowestMs, 10)},
				}))
			}

			if len(doc.BatchStatistics.Errors) > 0 {
				fmt.Fprintln(out, renderKeyValueTable("Error Category", "Count",
					bucketRows(doc.BatchStatistics.Errors)))
			}
			return nil
		},
	}
}

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "items <workspace>",
		Short: "List workspace items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter workspace.Status
			if statusFilter != "" {
				parsed, ok := workspace.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q (known: %s)", statusFilter, knownStatuses())
				}
				filter = parsed
			}

			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}
			doc, err := store.Document(cmd.Context(), true)
			if err != nil {
				return err
			}

			var rows [][]string
			doc.Items.Walk(func(item *workspace.Item) bool {
				if filter != "" && item.ProcessingInfo.Status != filter {
					return true
				}
				detail := item.Description
				if item.ProcessingInfo.ErrorMessage != "" {
					detail = item.ProcessingInfo.ErrorMessage
				}
				rows = append(rows, []string{
					item.ItemID,
					item.OriginalFile,
					string(item.ProcessingInfo.Status),
					truncate(detail, 60),
				})
				return true
			})

			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No items")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{{title: "ID"}, {title: "File"}, {title: "Status"}, {title: "Detail"}},
				rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&statusFilter, "status", "", "Filter by status")
	return cmd
}

func newResumeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <workspace>",
		Short: "Show the resume checkpoint and remaining work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}

			checkpoint, ok, err := store.ResumeCheckpoint(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "Workspace is complete; nothing to resume")
				return nil
			}

			remaining, err := store.RemainingItems(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Next item: %s\n", checkpoint)
			fmt.Fprintf(out, "Remaining: %d item(s)\n", len(remaining))
			for _, id := range remaining {
				fmt.Fprintf(out, "  %s\n", id)
			}
			return nil
		},
	}
}

func bucketRows(m map[string]int) [][]string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, strconv.Itoa(m[key])})
	}
	return rows
}

func knownStatuses() string {
	statuses := workspace.AllStatuses()
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
