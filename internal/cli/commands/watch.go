package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/convergelabs/schemasync/internal/cli/config"
)

// debounceWindow batches editor save bursts into one pass.
const debounceWindow = 500 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Reconcile whenever a schema definition changes",
		Long: `Watch the schemas directory and run a reconciliation pass each time a
table definition is created, modified or removed. Intended for local
development against a scratch database.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := getConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateDirectories(); err != nil {
				return err
			}

			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return fmt.Errorf("starting watcher: %w", err)
			}
			defer func() { _ = watcher.Close() }()

			if err := watcher.Add(cfg.SchemasDir); err != nil {
				return fmt.Errorf("watching %s: %w", cfg.SchemasDir, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s (ctrl-c to stop)\n", cfg.SchemasDir)

			// Initial pass so the database converges before the first edit.
			runPass(cmd)

			return watchLoop(cmd.Context(), cmd, watcher)
		},
	}
}

func watchLoop(ctx context.Context, cmd *cobra.Command, watcher *fsnotify.Watcher) error {
	logger := config.GetLogger(ctx)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isSchemaFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debug("schema change detected", "file", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				timerCh = timer.C
			} else {
				timer.Reset(debounceWindow)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			runPass(cmd)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err.Error())
		}
	}
}

func isSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// runPass runs one apply and reports the outcome without stopping the
// watch loop on failure.
func runPass(cmd *cobra.Command) {
	out := cmd.OutOrStdout()

	r, err := createReconciler(cmd)
	if err != nil {
		fmt.Fprintf(out, "pass error: %v\n", err)
		return
	}
	defer func() { _ = r.Close() }()

	res, err := r.Apply(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "pass error: %v\n", err)
		return
	}

	changed := 0
	for _, tr := range res.Tables {
		changed += len(tr.Statements)
	}
	fmt.Fprintf(out, "[%s] pass %s: %d table(s), %d statement(s), %d failed\n",
		time.Now().Format("15:04:05"), res.PassID, len(res.Tables), changed, res.Failed)
}
