package events

import (
	"context"

	"github.com/yourusername/song-request-board/internal/models"
)

// TopicSongRequestCreated is published once per stored song request.
const TopicSongRequestCreated = "songrequests.created"

type SongRequestCreated struct {
	SongRequest models.SongRequest `json:"song_request"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}

// Observer publishes a SongRequestCreated event for every new song request.
type Observer struct {
	Publisher Publisher
}

func (o Observer) OnSubmitted(ctx context.Context, req models.SongRequest) error {
	return o.Publisher.Publish(ctx, TopicSongRequestCreated, SongRequestCreated{SongRequest: req})
}
