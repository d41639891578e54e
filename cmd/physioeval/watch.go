package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"physioeval/internal/service"
	"physioeval/internal/watcher"
)

// Inbox subdirectories processed files are moved into
const (
	importedDir = "imported"
	failedDir   = "failed"
)

func watchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import every JSON document dropped into the inbox directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			if dir == "" {
				dir = a.cfg.Inbox.Dir
			}
			if dir == "" {
				return fmt.Errorf("no inbox directory: set inbox.dir or pass --dir")
			}

			events := make(chan service.Event, 100)
			a.bus.Subscribe(events)
			go logEvents(a.log, events)

			inbox := watcher.New(dir, func(path string) {
				a.processInboxFile(cmd, path)
			}, a.log).WithDebounce(a.cfg.Inbox.Debounce.Duration())

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s (Ctrl+C to stop)\n", inbox.Dir())
			err := inbox.Watch(cmd.Context())
			close(events)
			if errors.Is(err, cmd.Context().Err()) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().String("dir", "", "Inbox directory (default: inbox.dir from config)")
	return cmd
}

// processInboxFile imports one document and moves it out of the inbox so it
// is never imported twice.
func (a *app) processInboxFile(cmd *cobra.Command, path string) {
	id, err := a.exchange.Import(cmd.Context(), path)
	if err != nil {
		a.log.Error().Err(err).Str("path", path).Msg("inbox import failed")
		if moveErr := moveInto(path, failedDir); moveErr != nil {
			a.log.Error().Err(moveErr).Str("path", path).Msg("failed to move rejected file")
		}
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as evaluation %d\n", filepath.Base(path), id)
	if err := moveInto(path, importedDir); err != nil {
		a.log.Error().Err(err).Str("path", path).Msg("failed to move imported file")
	}
}

// moveInto moves path into the named sibling subdirectory. An existing file
// of the same name gets a timestamp suffix instead of being overwritten.
func moveInto(path, sub string) error {
	dir := filepath.Join(filepath.Dir(path), sub)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	dest := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(dest); err == nil {
		ext := filepath.Ext(dest)
		dest = fmt.Sprintf("%s.%s%s", dest[:len(dest)-len(ext)], time.Now().Format("20060102T150405.000"), ext)
	}
	return os.Rename(path, dest)
}

func logEvents(log zerolog.Logger, events <-chan service.Event) {
	for e := range events {
		log.Debug().Str("type", string(e.Type)).Int64("evaluation_id", e.EvaluationID).Str("path", e.Path).Msg("event")
	}
}
