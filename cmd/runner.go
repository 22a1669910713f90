package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/services"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	service    services.Service
	injected   bool
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Service    services.Service
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
//
// When Service is nil the player client is built from Config on first use.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	return &Runner{
		config:     opts.Config,
		service:    opts.Service,
		injected:   opts.Service != nil,
		httpClient: opts.HTTPClient,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		listCommand, statusCommand, watchCommand, uploadCommand, deleteCommand, playCommand,
		moveCommand, orderCommand, downloadCommand, thumbnailCommand, m3uCommand, tuiCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by the runner and every component it builds afterwards.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
	if !r.injected {
		r.service = nil
	}
}

// prepare applies the --config and --url flags of cmd on top of the loaded configuration.
func (r *Runner) prepare(_ context.Context, cmd *cli.Command) error {
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		}
		config, err := shared.LoadConfig(path)
		if err != nil {
			return err
		}
		r.config = config
		r.resetService()
	}
	if baseURL := cmd.String("url"); baseURL != "" {
		r.config.Player.BaseURL = baseURL
		r.resetService()
	}
	return nil
}

func (r *Runner) resetService() {
	r.service = nil
	r.injected = false
}

// player returns the player client, building it from the configuration if needed.
func (r *Runner) player() services.Service {
	if r.service != nil {
		return r.service
	}

	client := r.httpClient
	if client == nil {
		client = services.NewHTTPClient(r.config.Player.Timeout.Duration, r.config.Player.RetryMax)
	}
	r.service = services.NewSignageService(services.SignageOpts{
		BaseURL:           r.config.Player.BaseURL,
		HTTPClient:        client,
		RequestsPerSecond: r.config.Player.RequestsPerSecond,
		Metrics:           r.metrics,
		Logger:            r.logger,
	})
	return r.service
}

// controller builds a controller over the player client. Callers must Close it.
func (r *Runner) controller(pollInterval time.Duration) *tasks.Controller {
	if pollInterval <= 0 {
		pollInterval = r.config.Poller.Interval.Duration
	}
	return tasks.NewController(tasks.ControllerOpts{
		Service:      r.player(),
		PollInterval: pollInterval,
		FaultTTL:     r.config.Thumbnails.FaultTTL.Duration,
		Metrics:      r.metrics,
		Logger:       r.logger,
	})
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
