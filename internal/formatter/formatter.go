// package formatter renders playlist and playback data for terminals and files (text, JSON, CSV, M3U)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/desertthunder/signctl/internal/models"
)

// Output formats accepted by [Export].
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatM3U  = "m3u"
)

// PlayingMarker prefixes the playing entry in text listings.
const PlayingMarker = "▶"

// FormatTime renders seconds as m:ss. Negative and non-finite values render as 0:00.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// NowPlaying renders "name  m:ss / m:ss", or "" when the player is idle.
func NowPlaying(s models.PlaybackStatus) string {
	if !s.Playing() {
		return ""
	}
	return fmt.Sprintf("%s  %s / %s", s.Filename, FormatTime(s.Elapsed), FormatTime(s.Duration))
}

// StatusLine is the one-line status used by the CLI.
func StatusLine(s models.PlaybackStatus) string {
	if !s.Playing() {
		return "idle"
	}
	return fmt.Sprintf("%s %s (%d%%)", PlayingMarker, NowPlaying(s), int(math.Round(s.Progress()*100)))
}

// ExportToText renders a numbered listing, marking the entry named playing.
func ExportToText(order models.PlaylistOrder, playing string) []byte {
	var buf bytes.Buffer
	if len(order) == 0 {
		buf.WriteString("(no files)\n")
		return buf.Bytes()
	}

	width := len(strconv.Itoa(len(order)))
	for i, name := range order {
		marker := " "
		if name == playing {
			marker = PlayingMarker
		}
		fmt.Fprintf(&buf, "%s %*d. %s\n", marker, width, i+1, name)
	}
	return buf.Bytes()
}

// listingJSON is the document written by [ExportToJSON].
type listingJSON struct {
	Files  models.PlaylistOrder   `json:"files"`
	Status *models.PlaybackStatus `json:"status,omitempty"`
}

// ExportToJSON renders the order, plus the status when non-nil, as indented JSON.
func ExportToJSON(order models.PlaylistOrder, status *models.PlaybackStatus) ([]byte, error) {
	if order == nil {
		order = models.PlaylistOrder{}
	}
	data, err := json.MarshalIndent(listingJSON{Files: order, Status: status}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listing: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV renders the order with columns: Position, Filename
func ExportToCSV(order models.PlaylistOrder) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Position", "Filename"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for i, name := range order {
		if err := writer.Write([]string{strconv.Itoa(i + 1), name}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToM3U renders entries as an extended M3U playlist.
func ExportToM3U(entries []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("#EXTM3U\n")
	for _, e := range entries {
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Export renders order in format. M3U output lists bare filenames.
func Export(format string, order models.PlaylistOrder, status *models.PlaybackStatus) ([]byte, error) {
	switch format {
	case "", FormatText:
		playing := ""
		if status != nil {
			playing = status.Filename
		}
		return ExportToText(order, playing), nil
	case FormatJSON:
		return ExportToJSON(order, status)
	case FormatCSV:
		return ExportToCSV(order)
	case FormatM3U:
		return ExportToM3U(order), nil
	default:
		return nil, fmt.Errorf("unsupported format %q (want text, json, csv or m3u)", format)
	}
}

// WriteExport writes data to path.
func WriteExport(data []byte, path string) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
