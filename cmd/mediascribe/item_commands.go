package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mediascribe/internal/textutil"
	"mediascribe/internal/workspace"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var sourceType string

	cmd := &cobra.Command{
		Use:   "add <workspace> <file>...",
		Short: "Register files as units of work",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore(args[0])
			if err != nil {
				return err
			}

			for _, file := range args[1:] {
				item := workspace.Item{
					ItemID:       textutil.SanitizeToken(filepath.Base(file)),
					OriginalFile: file,
					DisplayFile:  file,
				}
				item.ProcessingInfo.SourceType = sourceType
				if info, err := os.Stat(file); err == nil {
					item.Metadata.FileSize = info.Size()
				}
				if err := store.AddItem(cmd.Context(), item); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", item.ItemID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceType, "source-type", "image", "Source type recorded on each item (image, video)")
	return cmd
}

func newStartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "start <workspace> <item-id>",
		Short: "Mark an item as processing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}
			ok, err := store.MarkProcessing(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found or already finished\n", args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processing %s\n", args[1])
			return nil
		},
	}
}

func newCompleteCommand(ctx *commandContext) *cobra.Command {
	var description string
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "complete <workspace> <item-id>",
		Short: "Record a successful description for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}
			ok, err := store.MarkCompleted(cmd.Context(), args[1], description, duration, nil)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found or already finished\n", args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Generated description text")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Processing time (e.g. 1.5s, 300ms)")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func newFailCommand(ctx *commandContext) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "fail <workspace> <item-id>",
		Short: "Record a processing failure for an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}
			ok, err := store.MarkFailed(cmd.Context(), args[1], message)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found or already finished\n", args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Failed %s\n", args[1])
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "error", "e", "", "Failure message")
	_ = cmd.MarkFlagRequired("error")
	return cmd
}

func newSkipCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "skip <workspace> <item-id>",
		Short: "Exclude an unprocessed item from the batch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}
			ok, err := store.MarkSkipped(cmd.Context(), args[1])
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "Item %s not found or already started\n", args[1])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Skipped %s\n", args[1])
			return nil
		},
	}
}
