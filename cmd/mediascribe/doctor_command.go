package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"mediascribe/internal/workspace"
)

type checkResult struct {
	Name   string
	Passed bool
	Detail string
}

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor <workspace>",
		Short: "Check that a workspace is usable: permissions, locking, document validity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.resolveWorkspacePath(args[0])
			if err != nil {
				return err
			}

			results := []checkResult{
				checkDirectoryAccess(filepath.Dir(path)),
				checkLock(cmd.Context(), path, ctx),
				checkDocument(cmd.Context(), path, ctx),
			}

			rows := make([][]string, 0, len(results))
			failed := 0
			for _, result := range results {
				mark := "ok"
				if !result.Passed {
					mark = "FAIL"
					failed++
				}
				rows = append(rows, []string{result.Name, mark, result.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{{title: "Check"}, {title: "Result"}, {title: "Detail"}},
				rows))

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}
}

// checkDirectoryAccess verifies the workspace directory exists and is
// readable/writable.
func checkDirectoryAccess(dir string) checkResult {
	const name = "Directory access"
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return checkResult{Name: name, Detail: fmt.Sprintf("%s does not exist", dir)}
		}
		return checkResult{Name: name, Detail: fmt.Sprintf("stat %s: %v", dir, err)}
	}
	if !info.IsDir() {
		return checkResult{Name: name, Detail: fmt.Sprintf("%s is not a directory", dir)}
	}
	if err := unix.Access(dir, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("insufficient permissions on %s: %v", dir, err)}
	}
	return checkResult{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", dir)}
}

// checkLock probes whether exclusive access can be obtained and reports
// which lock strategy the workspace would use.
func checkLock(ctx context.Context, path string, cctx *commandContext) checkResult {
	const name = "Document lock"

	strategy := "os advisory lock"
	var lock *workspace.FileLock
	if cctx.cfg.Store.FallbackLocking {
		strategy = "existence marker (no cross-process exclusion)"
		lock = workspace.NewFallbackFileLock(workspace.LockPath(path), cctx.logger)
	} else {
		lock = workspace.NewFileLock(workspace.LockPath(path), cctx.logger)
	}

	err := lock.WithLock(ctx, 2*time.Second, func() error { return nil })
	if err != nil {
		return checkResult{Name: name, Detail: fmt.Sprintf("%s: %v", strategy, err)}
	}
	return checkResult{Name: name, Passed: true, Detail: strategy}
}

func checkDocument(ctx context.Context, path string, cctx *commandContext) checkResult {
	const name = "Document"
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return checkResult{Name: name, Passed: true, Detail: "not created yet"}
		}
		return checkResult{Name: name, Detail: err.Error()}
	}

	store, err := cctx.registry.Get(path)
	if err != nil {
		return checkResult{Name: name, Detail: err.Error()}
	}
	doc, err := store.Document(ctx, false)
	if err != nil {
		return checkResult{Name: name, Detail: err.Error()}
	}
	return checkResult{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("version %s, %d item(s)", doc.WorkspaceInfo.Version, doc.Items.Len()),
	}
}
