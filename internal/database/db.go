package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/yourusername/song-request-board/internal/models"
)

// Dialect identifies the SQL backend behind a DB.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

type DB struct {
	*sql.DB
	dialect Dialect
}

// New opens the database named by dsn, configures the connection pool and
// applies pending migrations. postgres:// and postgresql:// URLs select
// PostgreSQL; sqlite://<path> and file:<path> select SQLite.
func New(dsn string) (*DB, error) {
	dialect, source, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(string(dialect), source)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	switch dialect {
	case Postgres:
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case SQLite:
		// One writer at a time; also keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := runMigrations(db, dialect, source); err != nil {
		db.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	log.Printf("Database connection established (%s)", dialect)
	return &DB{DB: db, dialect: dialect}, nil
}

func parseDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("sqlite database path is required")
		}
		return SQLite, withSQLitePragmas(path), nil
	case strings.HasPrefix(dsn, "file:"):
		return SQLite, withSQLitePragmas(dsn), nil
	case dsn == "":
		return "", "", fmt.Errorf("database url is required")
	}
	return "", "", fmt.Errorf("unsupported database url scheme: %q", dsn)
}

func withSQLitePragmas(source string) string {
	sep := "?"
	if strings.Contains(source, "?") {
		sep = "&"
	}
	return source + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Dialect reports which backend this DB talks to.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

const (
	insertSongRequestPostgres = `
		INSERT INTO song_requests (id, name, song_artist, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, song_artist, submitted_at
	`
	insertSongRequestSQLite = `
		INSERT INTO song_requests (id, name, song_artist, submitted_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, name, song_artist, submitted_at
	`
	listSongRequests = `
		SELECT id, name, song_artist, submitted_at
		FROM song_requests
		ORDER BY submitted_at DESC, id DESC
	`
	countSongRequests = `SELECT COUNT(*) FROM song_requests`
)

// CreateSongRequest inserts a song request and returns the stored row.
func (db *DB) CreateSongRequest(ctx context.Context, req *models.SongRequest) (*models.SongRequest, error) {
	query := insertSongRequestPostgres
	if db.dialect == SQLite {
		query = insertSongRequestSQLite
	}

	row := db.QueryRowContext(ctx, query, req.ID, req.Name, req.SongArtist, db.encodeTime(req.SubmittedAt))
	result, err := db.scanSongRequest(row)
	if err != nil {
		return nil, fmt.Errorf("error creating song request: %w", err)
	}

	return result, nil
}

// ListSongRequests returns every song request, most recent first.
func (db *DB) ListSongRequests(ctx context.Context) ([]models.SongRequest, error) {
	rows, err := db.QueryContext(ctx, listSongRequests)
	if err != nil {
		return nil, fmt.Errorf("error listing song requests: %w", err)
	}
	defer rows.Close()

	requests := make([]models.SongRequest, 0)
	for rows.Next() {
		req, err := db.scanSongRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning song request: %w", err)
		}
		requests = append(requests, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing song requests: %w", err)
	}

	return requests, nil
}

// CountSongRequests returns the number of stored song requests.
func (db *DB) CountSongRequests(ctx context.Context) (int, error) {
	var count int
	if err := db.QueryRowContext(ctx, countSongRequests).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting song requests: %w", err)
	}
	return count, nil
}
