package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/fetchwrap/packages/fetch"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

// requestFlags are the flags of one request command.
type requestFlags struct {
	method string
	data   string
	cache  string
	watch  bool
}

func newRequestCmd() *cobra.Command {
	rf := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Send a request with any method",
		Long: `Send a request with the method given by -X.

Examples:
  fetchwrap request -X OPTIONS /users
  fetchwrap request -X POST /users --data '{"name":"ada"}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, args[0], rf)
		},
	}
	cmd.Flags().StringVarP(&rf.method, "method", "X", "GET", "HTTP method")
	addBodyFlags(cmd, rf)
	return cmd
}

func newMethodCmd(method string) *cobra.Command {
	rf := &requestFlags{method: method}
	withBody := method == "POST" || method == "PUT" || method == "PATCH"

	use := strings.ToLower(method) + " <url>"
	if withBody {
		use += " [--data JSON|@file]"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Send a %s request", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, args[0], rf)
		},
	}
	if withBody {
		addBodyFlags(cmd, rf)
	} else {
		cmd.Flags().StringVar(&rf.cache, "cache", "", "Cache policy: default, no-store, reload, no-cache, force-cache, only-if-cached")
	}
	return cmd
}

func addBodyFlags(cmd *cobra.Command, rf *requestFlags) {
	cmd.Flags().StringVarP(&rf.data, "data", "d", "", "Request body; @file reads a file, @- reads stdin")
	cmd.Flags().StringVar(&rf.cache, "cache", "", "Cache policy: default, no-store, reload, no-cache, force-cache, only-if-cached")
	cmd.Flags().BoolVarP(&rf.watch, "watch", "w", false, "Re-send the request whenever the @file changes")
}

func runRequest(cmd *cobra.Command, url string, rf *requestFlags) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	send := func() error {
		body, err := readData(rf.data, cmd.InOrStdin())
		if err != nil {
			return usageError(err)
		}

		overrides := &fetch.RequestConfig{
			Method:   strings.ToUpper(rf.method),
			Body:     body,
			Cache:    rf.cache,
			Redirect: s.cfg.Redirect,
		}

		resp, err := s.client.Request(ctx, url, overrides)
		if err != nil {
			return requestError(err)
		}

		sent := s.sent.Load()
		if sent == nil {
			sent = fetch.MergeRequestConfig(fetch.DefaultRequestConfig(), overrides)
		}
		if err := s.formatter.FormatResponse(resp, sent); err != nil {
			return withCode(ExitRequestFailure, err)
		}
		if s.cfg.GetVerbose() {
			s.formatter.FormatLatency(s.latency.Snapshot())
		}
		return nil
	}

	if !rf.watch {
		return send()
	}

	path, ok := strings.CutPrefix(rf.data, "@")
	if !ok || path == "" || path == "-" {
		return usageError(fmt.Errorf("--watch needs --data @file"))
	}

	if err := send(); err != nil {
		s.formatter.FormatError(err)
	}
	return watchFile(ctx, cmd, path, func() {
		if err := send(); err != nil {
			s.formatter.FormatError(err)
		}
	}, s.logger)
}

// watchFile calls fn after every write to path until ctx is done.
func watchFile(ctx context.Context, cmd *cobra.Command, path string, fn func(), log *zap.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return usageError(err)
	}

	// Watch the directory so editors that replace the file are still seen
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", path)

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "\nFile changed: %s\nRe-sending request...\n\n", event.Name)
				fn()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}
