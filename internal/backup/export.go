package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/yourusername/song-request-board/internal/models"
)

// Lister reads every stored song request.
type Lister interface {
	ListSongRequests(ctx context.Context) ([]models.SongRequest, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version          string    `json:"version"`
	Type             string    `json:"type"`
	Timestamp        time.Time `json:"timestamp"`
	SongRequestCount int       `json:"song_request_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string             `json:"type"`
	Data models.SongRequest `json:"data"`
}

// ExportJSONL writes a header line followed by one line per song request,
// most recent first. It returns the number of song requests written.
func ExportJSONL(ctx context.Context, l Lister, w io.Writer) (int, error) {
	requests, err := l.ListSongRequests(ctx)
	if err != nil {
		return 0, fmt.Errorf("list song requests: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:          "1",
		Type:             "header",
		Timestamp:        time.Now().UTC(),
		SongRequestCount: len(requests),
	}); err != nil {
		return 0, fmt.Errorf("encode header: %w", err)
	}

	for _, r := range requests {
		if err := enc.Encode(record{Type: "song_request", Data: r}); err != nil {
			return 0, fmt.Errorf("encode song request %s: %w", r.ID, err)
		}
	}

	return len(requests), nil
}
