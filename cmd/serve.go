package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/copilotpulse/internal/cli"
	"github.com/theirongolddev/copilotpulse/internal/config"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
	"github.com/theirongolddev/copilotpulse/internal/server"
	"github.com/theirongolddev/copilotpulse/internal/state"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeWatch        bool
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve [files or directories...]",
	Short: "Serve usage views over HTTP with SSE change events",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show status of a running server",
	Args:  cobra.NoArgs,
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config, then "+config.DefaultServerAddr+")")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 0, "Reload on this interval (0 disables)")
	serveCmd.Flags().BoolVar(&flagServeWatch, "watch", false, "Reload when input files change")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	switch {
	case flagServeAddr != "":
		return flagServeAddr
	case appConfig.Server.Addr != "":
		return appConfig.Server.Addr
	default:
		return config.DefaultServerAddr
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	paths := inputPaths(args)
	if len(paths) == 0 {
		return pipeline.ErrNoInputs
	}

	interval := flagServeInterval
	if !cmd.Flags().Changed("interval") {
		interval = appConfig.Server.Interval()
	}
	watch := flagServeWatch || appConfig.Server.Watch
	cache := cachePath()

	load := func(ctx context.Context) ([]state.Source, error) {
		res, err := pipeline.LoadPaths(ctx, paths, cache, pipeline.LoadOptions{Logger: appLog})
		if err != nil {
			return nil, err
		}
		return state.SourcesFrom(res), nil
	}

	svc := server.New(server.Config{
		Addr:         serveAddr(),
		Inputs:       paths,
		Load:         load,
		Interval:     interval,
		Watch:        watch,
		EventsBuffer: flagServeEventsBuffer,
		Logger:       appLog.With("component", "server"),
	})

	fmt.Printf("  copilotpulse listening on http://%s\n", serveAddr())
	switch {
	case watch && interval > 0:
		fmt.Printf("  Watching %d inputs, reloading every %s\n", len(paths), interval)
	case watch:
		fmt.Printf("  Watching %d inputs\n", len(paths))
	case interval > 0:
		fmt.Printf("  Reloading every %s\n", interval)
	}
	fmt.Println("  Stop with Ctrl+C")

	if err := svc.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runServeStatus(cmd *cobra.Command, _ []string) error {
	addr := serveAddr()
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return fmt.Errorf("building status request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("  Server: unreachable at %s (%v)\n", addr, err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  Server: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st server.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  Server: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Address: http://%s\n", addr)
	fmt.Printf("  Started: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	if st.LastReloadAt.IsZero() {
		fmt.Printf("  Last reload: pending\n")
	} else {
		fmt.Printf("  Last reload: %s\n", st.LastReloadAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Reloads: %d\n", st.ReloadCount)
	fmt.Printf("  Sources: %d\n", st.Sources)
	fmt.Printf("  Records: %s\n", cli.FormatNumber(int64(st.Summary.Records)))
	fmt.Printf("  Users: %d\n", st.Summary.Users)
	fmt.Printf("  Acceptance: %s\n", cli.FormatRate(st.Summary.AcceptanceRate))
	fmt.Printf("  Subscribers: %d\n", st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}
