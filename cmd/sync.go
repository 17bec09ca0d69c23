package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tsync/internal/formatter"
	"github.com/desertthunder/tsync/internal/shared"
	"github.com/desertthunder/tsync/internal/tasks"
	"github.com/desertthunder/tsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// SyncRun runs a full two-way sync for the selected users.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	users, err := r.users(cmd.String("user"))
	if err != nil {
		return err
	}

	engine, err := r.engine()
	if err != nil {
		return err
	}
	engine.SetDryRun(cmd.Bool("dry-run"))

	r.logger.Info("starting sync", "users", len(users), "dry_run", cmd.Bool("dry-run"))

	progressCh := make(chan tasks.ProgressUpdate, 50)
	printerDone := make(chan struct{})
	go func() {
		defer close(printerDone)
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchRemote:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.ReconcileMoviesPhase, tasks.ReconcileShows:
				r.writePlain("🔍 %s\n", update.Message)
			case tasks.ApplyLocal:
				r.writePlain("💾 %s\n", update.Message)
			case tasks.Dispatch:
				r.writePlain("📤 %s\n", update.Message)
			case tasks.UserDone:
				r.writePlain("✓ %s (%.0f%%)\n", update.Message, update.Percent)
			}
		}
	}()

	report := engine.SyncAll(ctx, users, progressCh)
	close(progressCh)
	<-printerDone

	if err := ctx.Err(); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(report, true)
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("%s", formatter.SummaryText(report))

	if base := cmd.String("report"); base != "" {
		result, err := formatter.WriteReport(report, base)
		if err != nil {
			return err
		}
		r.writePlainln("Reports written to %s and %s", result.JSONFile, result.MarkdownFile)
	}

	return nil
}

// SyncUI launches the interactive terminal UI for running a sync.
func (r *Runner) SyncUI(ctx context.Context, cmd *cli.Command) error {
	users, err := r.users(cmd.String("user"))
	if err != nil {
		return err
	}

	engine, err := r.engine()
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/tsync-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)
	engine.SetLogger(fileLogger)

	model := ui.NewModel(ctx, engine, users)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
