package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/water-dashboard/devapi"
	"github.com/jrsteele09/water-dashboard/fixtures"
	"github.com/jrsteele09/water-dashboard/internal/config"
	"github.com/jrsteele09/water-dashboard/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type options struct {
	fixturesPath string
	outage       int
	seed         int64
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "devapi",
		Short: "Local development backend for the water dashboard",
		Long: `devapi serves the dashboard API from fixture data with real JWT
authentication, so the client can be exercised end to end without the
production backend.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}
	cmd.Flags().StringVar(&opts.fixturesPath, "fixtures", "", "YAML fixture file (defaults to the built-in data)")
	cmd.Flags().IntVar(&opts.outage, "outage", 0, "Answer every API route with this status (e.g. 503)")
	cmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "Seed for generated metric readings")
	return cmd
}

func run(opts options) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	config.LoadDotEnv()
	c := config.New()
	logging.Setup(c.GetLogLevel(), c.GetEnv())
	displayAppname(c.GetAppName())

	source, err := loadFixtures(opts)
	if err != nil {
		return err
	}
	api, err := devapi.New(c, source)
	if err != nil {
		return err
	}
	if opts.outage != 0 {
		api.SetOutage(opts.outage)
	}

	server := &http.Server{Addr: c.GetPort(), Handler: api, ReadHeaderTimeout: 10 * time.Second}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(server)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func loadFixtures(opts options) (fixtures.Source, error) {
	if opts.fixturesPath == "" {
		return fixtures.NewStatic(fixtures.WithSeed(opts.seed)), nil
	}
	source, err := fixtures.LoadYAML(opts.fixturesPath, fixtures.WithSeed(opts.seed))
	if err != nil {
		return nil, fmt.Errorf("loading fixtures: %w", err)
	}
	log.Info().Str("file", opts.fixturesPath).Msg("fixtures loaded")
	return source, nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("devapi listening")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("devapi stopped")
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
