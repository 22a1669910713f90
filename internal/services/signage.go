// Signage player [Service] implementation
//
// Talks to the player's web API (/api/list, /api/status, ...) over plain HTTP.
package services

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/signctl/internal/metrics"
	"github.com/desertthunder/signctl/internal/models"
	"github.com/desertthunder/signctl/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "http://localhost:8080"

	// maxThumbnailBytes bounds how much of a thumbnail response is read.
	maxThumbnailBytes = 8 << 20
	// maxErrorBody bounds how much of an error response is kept for messages.
	maxErrorBody = 512
)

// StatusError reports a non-2xx answer from the player.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: player answered %d: %s", e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: player answered %d", e.Operation, e.StatusCode)
}

// Unwrap ties every StatusError to [shared.ErrAPIRequest].
func (e *StatusError) Unwrap() error { return shared.ErrAPIRequest }

// Is matches [shared.ErrFileNotFound] for 404 answers.
func (e *StatusError) Is(target error) bool {
	return target == shared.ErrFileNotFound && e.StatusCode == http.StatusNotFound
}

// SignageOpts contains configuration for a [SignageService].
type SignageOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond float64 // 0 disables throttling
	Metrics           *metrics.Metrics
	Logger            *log.Logger
}

// SignageService implements [Service] against a player's HTTP API.
type SignageService struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	logger     *log.Logger
}

var _ Service = (*SignageService)(nil)

// NewSignageService creates a new player client.
func NewSignageService(opts SignageOpts) *SignageService {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return &SignageService{
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		limiter:    limiter,
		metrics:    opts.Metrics,
		logger:     shared.WithLogger(opts.Logger, "component", "player"),
	}
}

// BaseURL returns the player's API root.
func (s *SignageService) BaseURL() string {
	return s.baseURL
}

func filePath(prefix, name string) string {
	return prefix + url.PathEscape(name)
}

// do sends one request and returns the response when the player answered 2xx.
// The caller owns the response body.
func (s *SignageService) do(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", shared.ErrAPIRequest, op, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.metrics.ObservePlayerRequest(op, start, err)
		s.logger.Debug("request failed", "op", op, "request_id", requestID, "error", err)
		return nil, transportError(op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{
			Operation:  op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
		s.metrics.ObservePlayerRequest(op, start, statusErr)
		s.logger.Debug("player rejected request", "op", op, "request_id", requestID, "status", resp.StatusCode)
		return nil, statusErr
	}

	s.metrics.ObservePlayerRequest(op, start, nil)
	return resp, nil
}

// transportError classifies a request that got no answer from the player.
func transportError(op string, err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %s: %w", shared.ErrAPIRequest, op, err)
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return fmt.Errorf("%w: %s: %w: %v", shared.ErrAPIRequest, op, shared.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %s: %w: %v", shared.ErrAPIRequest, op, shared.ErrServiceUnavailable, err)
	}
}

// discard drains and closes a response body so the connection can be reused.
func discard(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (s *SignageService) decode(ctx context.Context, op, path string, result any) error {
	resp, err := s.do(ctx, op, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s: failed to decode response: %v", shared.ErrAPIRequest, op, err)
	}
	return nil
}

// List calls GET /api/list.
func (s *SignageService) List(ctx context.Context) (models.PlaylistOrder, error) {
	var order models.PlaylistOrder
	if err := s.decode(ctx, OpList, "/api/list", &order); err != nil {
		return nil, err
	}
	if order == nil {
		order = models.PlaylistOrder{}
	}
	return order, nil
}

// Status calls GET /api/status.
func (s *SignageService) Status(ctx context.Context) (*models.PlaybackStatus, error) {
	var status models.PlaybackStatus
	if err := s.decode(ctx, OpStatus, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Upload streams r to POST /api/upload as multipart field "file".
func (s *SignageService) Upload(ctx context.Context, name string, r io.Reader) error {
	if name == "" {
		return fmt.Errorf("%w: upload needs a file name", shared.ErrMissingArgument)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	resp, err := s.do(ctx, OpUpload, http.MethodPost, "/api/upload", pr, mw.FormDataContentType())
	if err != nil {
		pr.CloseWithError(err)
		return err
	}
	discard(resp)
	return nil
}

// Delete calls DELETE /api/delete/{name}.
func (s *SignageService) Delete(ctx context.Context, name string) error {
	resp, err := s.do(ctx, OpDelete, http.MethodDelete, filePath("/api/delete/", name), nil, "")
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// Play calls POST /api/play/{name}.
func (s *SignageService) Play(ctx context.Context, name string) error {
	resp, err := s.do(ctx, OpPlay, http.MethodPost, filePath("/api/play/", name), nil, "")
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// SetOrder posts the full order as a JSON array to /api/order.
func (s *SignageService) SetOrder(ctx context.Context, order models.PlaylistOrder) error {
	if order == nil {
		order = models.PlaylistOrder{}
	}
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	resp, err := s.do(ctx, OpOrder, http.MethodPost, "/api/order", bytes.NewReader(data), "application/json")
	if err != nil {
		return err
	}
	discard(resp)
	return nil
}

// Thumbnail calls GET /api/thumbnail/{name}.
func (s *SignageService) Thumbnail(ctx context.Context, name string) ([]byte, error) {
	resp, err := s.do(ctx, OpThumbnail, http.MethodGet, filePath("/api/thumbnail/", name), nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read response: %v", shared.ErrAPIRequest, OpThumbnail, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s: empty image", shared.ErrAPIRequest, OpThumbnail)
	}
	return data, nil
}

// Download streams GET /api/download/{name} into w.
func (s *SignageService) Download(ctx context.Context, name string, w io.Writer) (int64, error) {
	resp, err := s.do(ctx, OpDownload, http.MethodGet, filePath("/api/download/", name), nil, "")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("%w: %s: copy interrupted: %v", shared.ErrAPIRequest, OpDownload, err)
	}
	return n, nil
}

// Playlist calls GET /api/playlist.m3u and returns the non-comment lines.
func (s *SignageService) Playlist(ctx context.Context) ([]string, error) {
	resp, err := s.do(ctx, OpPlaylist, http.MethodGet, "/api/playlist.m3u", nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return ParseM3U(resp.Body)
}

// ParseM3U reads an M3U playlist, skipping blank lines and #-directives.
func ParseM3U(r io.Reader) ([]string, error) {
	entries := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	return entries, nil
}
