package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/signctl/internal/formatter"
	"github.com/desertthunder/signctl/internal/models"
	"github.com/desertthunder/signctl/internal/server"
	"github.com/desertthunder/signctl/internal/shared"
	"github.com/desertthunder/signctl/internal/state"
	"github.com/desertthunder/signctl/internal/tasks"
	"github.com/desertthunder/signctl/internal/thumbs"
	"github.com/urfave/cli/v3"
)

// List prints the playlist, marking the file that is playing.
func (r *Runner) List(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	format := cmd.String("format")
	if cmd.Bool("json") {
		format = formatter.FormatJSON
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}

	var status *models.PlaybackStatus
	if s, err := r.player().Status(ctx); err != nil {
		r.logger.Debug("status unavailable for listing", "error", err)
	} else {
		status = s
	}

	data, err := formatter.Export(format, ctrl.Order(), status)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteExport(data, path); err != nil {
			return err
		}
		r.logger.Info("playlist written", "path", path, "format", format)
		return r.writePlain("Wrote %d entries to %s\n", len(ctrl.Order()), path)
	}

	_, err = r.output.Write(data)
	return err
}

// Status prints the current playback snapshot.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	status, err := r.player().Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, false)
	}
	return r.writePlain("%s\n", formatter.StatusLine(*status))
}

// Watch runs the status poller and prints the status line whenever it changes.
//
// It returns when ctx is cancelled or --duration elapses.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	ctrl := r.controller(cmd.Duration("interval"))
	defer ctrl.Close()

	addr := cmd.String("metrics-addr")
	if addr == "" {
		addr = r.config.Metrics.Addr
	}
	if addr != "" {
		srv, err := r.serveMetrics(addr, ctrl.State())
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if d := cmd.Duration("duration"); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	changes := make(chan struct{}, 1)
	view := ctrl.State()
	view.OnChange(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})

	last := formatter.StatusLine(view.Status())
	r.writePlain("%s\n", last)

	if err := ctrl.Poller().Start(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if line := formatter.StatusLine(view.Status()); line != last {
				last = line
				r.writePlain("%s\n", line)
			}
		}
	}
}

func (r *Runner) serveMetrics(addr string, view *state.ViewState) (*server.Server, error) {
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(server.NewMetricsHandler(r.metrics.Handler()))
	router.Handler(server.NewStatusHandler(view.Status))
	router.Handler(server.HealthHandler{})
	return server.Listen(addr, router, r.logger)
}

// Upload sends every file argument to the player in order, printing progress as it goes.
func (r *Runner) Upload(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	paths := cmd.Args().Slice()
	if len(paths) == 0 {
		return fmt.Errorf("%w: at least one file is required", shared.ErrMissingArgument)
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	progress := make(chan tasks.ProgressUpdate, len(paths)*2+1)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for update := range progress {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := ctrl.Upload(ctx, paths, progress)
	close(progress)
	<-printed

	if result == nil {
		return err
	}
	if result.RefreshErr != nil {
		r.logger.Warn("playlist refresh after upload failed", "error", result.RefreshErr)
	}

	r.writePlainln("%d uploaded, %d failed, %d cancelled", result.Succeeded, result.Failed, result.Cancelled)
	return err
}

// Delete removes a media file from the player.
func (r *Runner) Delete(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: media file name", shared.ErrMissingArgument)
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	if err := ctrl.Delete(ctx, name); err != nil {
		return err
	}
	return r.writePlain("Deleted %s\n", name)
}

// Play switches playback to a media file.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: media file name", shared.ErrMissingArgument)
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	if err := ctrl.Play(ctx, name); err != nil {
		return err
	}
	return r.writePlain("Playing %s\n", name)
}

// Move drags the entry at FROM onto TO and persists the new order.
func (r *Runner) Move(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	args := cmd.Args()
	if args.Len() != 2 {
		return fmt.Errorf("%w: move takes FROM and TO positions", shared.ErrMissingArgument)
	}
	from, err := parsePosition(args.Get(0))
	if err != nil {
		return err
	}
	to, err := parsePosition(args.Get(1))
	if err != nil {
		return err
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}

	reorder := ctrl.Reorder()
	if err := reorder.StartDrag(from); err != nil {
		return err
	}
	if err := reorder.Hover(to); err != nil {
		return err
	}
	move, err := reorder.Drop(to)
	if err != nil {
		return err
	}
	if move == nil {
		return r.writePlain("Nothing to move\n")
	}

	return r.persist(ctx, move)
}

// Order replaces the playback order with the named files.
func (r *Runner) Order(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	names := cmd.Args().Slice()
	if len(names) == 0 {
		return fmt.Errorf("%w: order needs the complete list of file names", shared.ErrMissingArgument)
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	if err := ctrl.Refresh(ctx); err != nil {
		return err
	}

	move, err := ctrl.Reorder().Apply(models.PlaylistOrder(names))
	if err != nil {
		return err
	}
	return r.persist(ctx, move)
}

func (r *Runner) persist(ctx context.Context, move *tasks.Move) error {
	if err := move.Persist(ctx); err != nil {
		return err
	}
	_, err := r.output.Write(formatter.ExportToText(move.Order, ""))
	return err
}

// parsePosition converts a 1-based position argument to an index.
func parsePosition(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: position %q must be a positive integer", shared.ErrInvalidArgument, arg)
	}
	return n - 1, nil
}

// Download saves the original bytes of a media file.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: media file name", shared.ErrMissingArgument)
	}

	dest := cmd.String("output")
	if dest == "" {
		dest = filepath.Base(name)
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}

	n, err := ctrl.Download(ctx, name, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return err
	}

	return r.writePlain("Saved %s to %s (%d bytes)\n", name, dest, n)
}

// Thumbnail previews a thumbnail in the terminal, or saves its bytes with --output.
func (r *Runner) Thumbnail(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: media file name", shared.ErrMissingArgument)
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	data, err := ctrl.Thumbnail(ctx, name)
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return r.writePlain("Saved thumbnail of %s to %s\n", name, path)
	}

	swatch, err := thumbs.Swatch(data, r.config.Thumbnails.Width, r.config.Thumbnails.Height)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", swatch)
}

// M3U prints the player's M3U playlist.
func (r *Runner) M3U(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(ctx, cmd); err != nil {
		return err
	}

	ctrl := r.controller(0)
	defer ctrl.Close()

	entries, err := ctrl.Playlist(ctx)
	if err != nil {
		return err
	}

	data := formatter.ExportToM3U(entries)
	if path := cmd.String("output"); path != "" {
		return formatter.WriteExport(data, path)
	}
	_, err = r.output.Write(data)
	return err
}
