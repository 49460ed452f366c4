package models

import "time"

type SongRequest struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	SongArtist  string    `json:"songArtist" db:"song_artist"`
	SubmittedAt time.Time `json:"submittedAt" db:"submitted_at"`
}

type CreateSongRequest struct {
	Name       string `json:"name" validate:"required"`
	SongArtist string `json:"songArtist" validate:"required"`
}

