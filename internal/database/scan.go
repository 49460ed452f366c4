package database

import (
	"time"

	"github.com/yourusername/song-request-board/internal/models"
)

type scanner interface {
	Scan(dest ...any) error
}

// SQLite keeps submitted_at as Unix microseconds; PostgreSQL uses TIMESTAMPTZ.
func (db *DB) encodeTime(t time.Time) any {
	if db.dialect == SQLite {
		return t.UTC().UnixMicro()
	}
	return t.UTC()
}

func (db *DB) scanSongRequest(s scanner) (*models.SongRequest, error) {
	var req models.SongRequest
	if db.dialect == SQLite {
		var micros int64
		if err := s.Scan(&req.ID, &req.Name, &req.SongArtist, &micros); err != nil {
			return nil, err
		}
		req.SubmittedAt = time.UnixMicro(micros).UTC()
		return &req, nil
	}

	if err := s.Scan(&req.ID, &req.Name, &req.SongArtist, &req.SubmittedAt); err != nil {
		return nil, err
	}
	req.SubmittedAt = req.SubmittedAt.UTC()
	return &req, nil
}
