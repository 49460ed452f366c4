package database

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/yourusername/song-request-board/internal/models"
)

var songRequestColumns = []string{"id", "name", "song_artist", "submitted_at"}

// newMockDB creates a sqlmock-backed Postgres DB with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		sqlDB.Close()
	})
	return &DB{DB: sqlDB, dialect: Postgres}, mock
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn         string
		wantDialect Dialect
		wantSource  string
		wantErr     bool
	}{
		{"postgres://u:p@localhost/songs", Postgres, "postgres://u:p@localhost/songs", false},
		{"postgresql://localhost/songs?sslmode=disable", Postgres, "postgresql://localhost/songs?sslmode=disable", false},
		{"sqlite://songs.db", SQLite, "songs.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"sqlite://:memory:", SQLite, ":memory:?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"file:songs.db?cache=shared", SQLite, "file:songs.db?cache=shared&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", false},
		{"sqlite://", "", "", true},
		{"", "", "", true},
		{"mysql://localhost/songs", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			dialect, source, err := parseDSN(tt.dsn)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got dialect %q", dialect)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if dialect != tt.wantDialect {
				t.Errorf("dialect = %q, want %q", dialect, tt.wantDialect)
			}
			if source != tt.wantSource {
				t.Errorf("source = %q, want %q", source, tt.wantSource)
			}
		})
	}
}

func TestCreateSongRequest_Postgres(t *testing.T) {
	db, mock := newMockDB(t)
	submitted := time.Date(2025, 3, 1, 20, 15, 0, 123000, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO song_requests (id, name, song_artist, submitted_at)")).
		WithArgs("sr-abc", "Tom", "Mr Brightside - The Killers", submitted).
		WillReturnRows(sqlmock.NewRows(songRequestColumns).
			AddRow("sr-abc", "Tom", "Mr Brightside - The Killers", submitted))

	got, err := db.CreateSongRequest(context.Background(), &models.SongRequest{
		ID:          "sr-abc",
		Name:        "Tom",
		SongArtist:  "Mr Brightside - The Killers",
		SubmittedAt: submitted,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "sr-abc" || got.Name != "Tom" || got.SongArtist != "Mr Brightside - The Killers" {
		t.Errorf("unexpected record: %+v", got)
	}
	if !got.SubmittedAt.Equal(submitted) {
		t.Errorf("SubmittedAt = %v, want %v", got.SubmittedAt, submitted)
	}
}

func TestCreateSongRequest_PostgresError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO song_requests")).WillReturnError(boom)

	_, err := db.CreateSongRequest(context.Background(), &models.SongRequest{ID: "sr-x", Name: "a", SongArtist: "b"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}
}

func TestListSongRequests_Postgres(t *testing.T) {
	db, mock := newMockDB(t)
	newer := time.Date(2025, 3, 1, 21, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY submitted_at DESC, id DESC")).
		WillReturnRows(sqlmock.NewRows(songRequestColumns).
			AddRow("sr-2", "Ana", "Dancing Queen - ABBA", newer).
			AddRow("sr-1", "Tom", "Mr Brightside - The Killers", older))

	got, err := db.ListSongRequests(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0].ID != "sr-2" || got[1].ID != "sr-1" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestListSongRequests_Empty(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM song_requests")).
		WillReturnRows(sqlmock.NewRows(songRequestColumns))

	got, err := db.ListSongRequests(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestListSongRequests_RowError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("read failed")

	mock.ExpectQuery(regexp.QuoteMeta("FROM song_requests")).
		WillReturnRows(sqlmock.NewRows(songRequestColumns).
			AddRow("sr-1", "Tom", "x", time.Now()).
			RowError(0, boom))

	if _, err := db.ListSongRequests(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped %v, got %v", boom, err)
	}
}

func TestCountSongRequests(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM song_requests")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := db.CountSongRequests(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
}

func TestCountSongRequests_Error(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).WillReturnError(sql.ErrConnDone)

	if _, err := db.CountSongRequests(context.Background()); !errors.Is(err, sql.ErrConnDone) {
		t.Fatalf("expected wrapped sql.ErrConnDone, got %v", err)
	}
}

func TestMigrationDB(t *testing.T) {
	shared, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer shared.Close()

	mdb, owned, err := migrationDB(shared, Postgres, "postgres://songs@127.0.0.1:1/songs?sslmode=disable")
	if err != nil {
		t.Fatalf("migrationDB(postgres): %v", err)
	}
	defer mdb.Close()
	if !owned || mdb == shared {
		t.Fatal("postgres migrations must not borrow a connection from the app pool")
	}
	if n := mdb.Stats().MaxOpenConnections; n != 1 {
		t.Errorf("MaxOpenConnections = %d, want 1", n)
	}

	same, owned, err := migrationDB(shared, SQLite, "songs.db")
	if err != nil {
		t.Fatalf("migrationDB(sqlite): %v", err)
	}
	if owned || same != shared {
		t.Error("sqlite migrations should reuse the app handle")
	}
}
