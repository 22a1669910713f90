package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/services"
	"github.com/desertthunder/signctl/internal/shared"
	tu "github.com/desertthunder/signctl/internal/testing"
)

// newTestRunner returns a runner wired to a fake player holding files.
func newTestRunner(t *testing.T, files ...string) (*Runner, *tu.FakePlayer, *bytes.Buffer) {
	t.Helper()
	player := tu.NewFakePlayer(t, files...)
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Service: services.NewSignageService(services.SignageOpts{BaseURL: player.URL()}),
		Logger:  shared.NopLogger(),
		Output:  output,
	})
	return runner, player, output
}

func run(r *Runner, args ...string) error {
	return newApp(r).Run(context.Background(), append([]string{"signctl"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			m := metrics.New()
			svc := services.NewSignageService(services.SignageOpts{})

			runner := NewRunner(RunnerOpts{
				Config:     config,
				Service:    svc,
				HTTPClient: httpClient,
				Metrics:    m,
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.metrics != m {
				t.Error("expected metrics to be set")
			}
			if runner.player() != svc {
				t.Error("expected injected service to be used")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil metrics creates a registry", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.metrics == nil || runner.metrics.Registry() == nil {
				t.Error("expected metrics to be created")
			}
		})
	})

	t.Run("player", func(t *testing.T) {
		t.Run("builds the client from config", func(t *testing.T) {
			config := shared.DefaultConfig()
			config.Player.BaseURL = "http://player.local:9000/"
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NopLogger()})

			svc, ok := runner.player().(*services.SignageService)
			if !ok {
				t.Fatalf("expected *services.SignageService, got %T", runner.player())
			}
			if svc.BaseURL() != "http://player.local:9000" {
				t.Errorf("expected base URL from config, got %s", svc.BaseURL())
			}
			if runner.player() != svc {
				t.Error("expected the client to be reused")
			}
		})

		t.Run("SetLogger rebuilds a configured client", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NopLogger()})
			first := runner.player()

			runner.SetLogger(shared.NopLogger())

			if runner.player() == first {
				t.Error("expected a new client after SetLogger")
			}
		})

		t.Run("SetLogger keeps an injected client", func(t *testing.T) {
			svc := services.NewSignageService(services.SignageOpts{})
			runner := NewRunner(RunnerOpts{Service: svc, Logger: shared.NopLogger()})

			runner.SetLogger(shared.NopLogger())

			if runner.player() != svc {
				t.Error("expected injected client to survive SetLogger")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			data := map[string]string{"key": "value"}
			err := runner.writeJSON(data, true)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if result := output.String(); result != expected {
				t.Errorf("expected %q, got %q", expected, result)
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			// channels cannot be marshaled to JSON
			err := runner.writeJSON(make(chan int), false)

			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("writePlainln surrounds text with newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlainln("%d done", 3); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if result := output.String(); result != "\n3 done\n" {
				t.Errorf("expected %q, got %q", "\n3 done\n", result)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")

			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{
			"list", "status", "watch", "upload", "delete", "play", "move",
			"order", "download", "thumbnail", "m3u", "tui", "setup",
		} {
			if !names[want] {
				t.Errorf("expected %q command to be registered", want)
			}
		}
	})

	t.Run("flags", func(t *testing.T) {
		t.Run("--url overrides the configured player", func(t *testing.T) {
			player := tu.NewFakePlayer(t, "a.mp4")
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: shared.NopLogger(), Output: output})

			if err := run(runner, "list", "--url", player.URL()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.Contains(output.String(), "a.mp4") {
				t.Errorf("expected listing from --url player, got %q", output.String())
			}
			if runner.config.Player.BaseURL != player.URL() {
				t.Errorf("expected base URL to be overridden, got %s", runner.config.Player.BaseURL)
			}
		})

		t.Run("--config loads the player from a file", func(t *testing.T) {
			player := tu.NewFakePlayer(t, "from-config.mp4")
			path := tu.WriteTempFile(t, "config.toml", "[player]\nbase_url = \""+player.URL()+"\"\n")
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: shared.NopLogger(), Output: output})

			if err := run(runner, "list", "--config", path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if !strings.Contains(output.String(), "from-config.mp4") {
				t.Errorf("expected listing from configured player, got %q", output.String())
			}
		})

		t.Run("--config with a missing file fails", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: shared.NopLogger(), Output: &bytes.Buffer{}})

			err := run(runner, "status", "--config", filepath.Join(t.TempDir(), "none.toml"))

			if !errors.Is(err, shared.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
		})

		t.Run("--config with an invalid file fails", func(t *testing.T) {
			path := tu.WriteTempFile(t, "config.toml", "[player]\nbase_url = \"not a url\"\n")
			runner := NewRunner(RunnerOpts{Logger: shared.NopLogger(), Output: &bytes.Buffer{}})

			err := run(runner, "status", "--config", path)

			if !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})

	t.Run("SetupConfig", func(t *testing.T) {
		t.Run("writes the default config", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Logger: shared.NopLogger(), Output: output})

			if err := run(runner, "setup", "config", "--config", path); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if _, err := shared.LoadConfig(path); err != nil {
				t.Errorf("expected written config to load, got %v", err)
			}
			if !strings.Contains(output.String(), "Config written to") {
				t.Errorf("expected confirmation, got %q", output.String())
			}
		})

		t.Run("refuses to overwrite", func(t *testing.T) {
			path := tu.WriteTempFile(t, "config.toml", "# mine\n")
			runner := NewRunner(RunnerOpts{Logger: shared.NopLogger(), Output: &bytes.Buffer{}})

			if err := run(runner, "setup", "config", "--config", path); err == nil {
				t.Fatal("expected error for existing file")
			}

			if got := tu.MustReadFile(t, path); got != "# mine\n" {
				t.Errorf("expected file untouched, got %q", got)
			}
		})
	})
}
