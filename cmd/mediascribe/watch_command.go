package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"mediascribe/internal/notify"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <workspace>",
		Short: "Follow workspace changes made by a running batch",
		Long: "Watch polls the document for changes made by other processes and\n" +
			"prints progress as items finish. When the workspace completes, a\n" +
			"push notification is sent if ntfy is configured.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			store, err := ctx.openExistingStore(args[0])
			if err != nil {
				return err
			}

			if interval <= 0 {
				interval = time.Duration(ctx.cfg.Store.MonitorPollSeconds) * time.Second
			}

			out := cmd.OutOrStdout()
			tty := isTerminal(os.Stdout)
			notifier := notify.NewService(ctx.cfg)

			updates := make(chan []string, 16)
			store.AddChangeCallback(func(itemIDs []string) {
				select {
				case updates <- itemIDs:
				default:
					// Drop rather than block the mutator; the next poll
					// reports the full picture anyway.
				}
			})

			store.StartMonitoring(interval)
			defer store.StopMonitoring()

			fmt.Fprintf(out, "Watching %s (poll every %s, ctrl-c to stop)\n", store.Path(), interval)

			notified := false
			for {
				select {
				case <-signalCtx.Done():
					return nil
				case ids := <-updates:
					progress, err := store.Progress(signalCtx)
					if err != nil {
						fmt.Fprintf(out, "reload failed: %v\n", err)
						continue
					}
					line := fmt.Sprintf("%d/%d completed, %d failed, %d skipped",
						progress.CompletedFiles, progress.TotalFiles,
						progress.FailedFiles, progress.SkippedFiles)
					if tty {
						fmt.Fprintf(out, "%s  [%s]\n", line, strings.Join(shorten(ids, 5), ", "))
					} else {
						fmt.Fprintln(out, line)
					}

					if progress.IsComplete && !notified {
						notified = true
						fmt.Fprintln(out, "Workspace complete")
						if err := notifier.NotifyWorkspaceCompleted(signalCtx, store.Path(),
							progress.CompletedFiles, progress.FailedFiles); err != nil {
							ctx.logger.Warn("completion notification failed", "error", err)
						}
					}
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (default from config)")
	return cmd
}

func isTerminal(file *os.File) bool {
	if file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func shorten(ids []string, max int) []string {
	if len(ids) <= max {
		return ids
	}
	out := append([]string{}, ids[:max]...)
	return append(out, fmt.Sprintf("+%d more", len(ids)-max))
}
