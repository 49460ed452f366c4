package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/song-request-board/internal/models"
)

// Source is the store a Manager snapshots.
type Source interface {
	Lister
	CountSongRequests(ctx context.Context) (int, error)
}

type Options struct {
	Dir           string
	Every         int // snapshot after this many new song requests; 0 disables
	RetentionDays int
	Uploader      Uploader // optional
}

// Metadata describes one snapshot. It is stored next to the snapshot as JSON.
type Metadata struct {
	BackupType  string `json:"backup_type"`
	Timestamp   string `json:"timestamp"`
	Filename    string `json:"filename"`
	SizeBytes   int64  `json:"size_bytes"`
	RecordCount int    `json:"record_count"`
	Remote      string `json:"remote,omitempty"`
}

const timestampLayout = "2006-01-02_15-04-05.000000"

const (
	maxNameAttempts = 100
	dailyBackupHour = 2
)

type Manager struct {
	source         Source
	backupDir      string
	editsThreshold int
	retentionDays  int
	uploader       Uploader
	lastEditCount  int
	mu             sync.Mutex

	now    func() time.Time
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(source Source, opts Options) *Manager {
	retention := opts.RetentionDays
	if retention < 1 {
		retention = 7
	}
	return &Manager{
		source:         source,
		backupDir:      opts.Dir,
		editsThreshold: opts.Every,
		retentionDays:  retention,
		uploader:       opts.Uploader,
		now:            time.Now,
	}
}

// Prime records the current row count so the edit threshold counts from
// startup rather than from an empty table.
func (m *Manager) Prime(ctx context.Context) error {
	count, err := m.source.CountSongRequests(ctx)
	if err != nil {
		return fmt.Errorf("error priming backup counter: %w", err)
	}
	m.mu.Lock()
	m.lastEditCount = count
	m.mu.Unlock()
	return nil
}

// Start begins the daily backup scheduler.
func (m *Manager) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.scheduleDailyBackup(ctx)
	}()
	log.Println("Backup manager started")
}

// Stop cancels the scheduler and waits for a running backup to finish.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// scheduleDailyBackup runs a backup every day at 2 AM.
func (m *Manager) scheduleDailyBackup(ctx context.Context) {
	for {
		now := m.now()
		wait := nextDailyBackup(now).Sub(now)
		log.Printf("Next scheduled backup in %v", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := m.CreateBackup(ctx, "daily"); err != nil {
			log.Printf("Error creating daily backup: %v", err)
		}
	}
}

// nextDailyBackup returns the first 2 AM strictly after now, in now's location.
func nextDailyBackup(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), dailyBackupHour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, dailyBackupHour, 0, 0, 0, now.Location())
	}
	return next
}

// OnSubmitted checks the edit threshold after each new song request.
func (m *Manager) OnSubmitted(ctx context.Context, _ models.SongRequest) error {
	if m.editsThreshold <= 0 {
		return nil
	}
	count, err := m.source.CountSongRequests(ctx)
	if err != nil {
		return fmt.Errorf("error counting song requests: %w", err)
	}
	return m.CheckEditThreshold(ctx, count)
}

// CheckEditThreshold backs up when enough song requests arrived since the last one.
func (m *Manager) CheckEditThreshold(ctx context.Context, currentEditCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.editsThreshold <= 0 || currentEditCount-m.lastEditCount < m.editsThreshold {
		return nil
	}
	// A failed export is retried at the next threshold, not on every submission.
	m.lastEditCount = currentEditCount
	if _, err := m.createBackupLocked(ctx, "edit-threshold"); err != nil {
		return err
	}
	return nil
}

// CreateBackup writes a JSONL snapshot plus its metadata to the backup
// directory, copies it to the uploader when one is configured, and prunes
// snapshots past retention.
func (m *Manager) CreateBackup(ctx context.Context, backupType string) (*Metadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBackupLocked(ctx, backupType)
}

func (m *Manager) createBackupLocked(ctx context.Context, backupType string) (*Metadata, error) {
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating backup directory: %w", err)
	}

	var buf bytes.Buffer
	count, err := ExportJSONL(ctx, m.source, &buf)
	if err != nil {
		return nil, fmt.Errorf("error exporting song requests: %w", err)
	}

	timestamp := m.now().Format(timestampLayout)
	base, err := m.writeSnapshot(fmt.Sprintf("backup_%s_%s", backupType, timestamp), buf.Bytes())
	if err != nil {
		return nil, err
	}
	filename := base + ".jsonl"

	meta := &Metadata{
		BackupType:  backupType,
		Timestamp:   timestamp,
		Filename:    filename,
		SizeBytes:   int64(buf.Len()),
		RecordCount: count,
	}

	if m.uploader != nil {
		remote, err := m.uploader.Upload(ctx, filename, buf.Bytes())
		if err != nil {
			// The local copy is still good; keep it and report the upload failure.
			log.Printf("Error uploading backup %s: %v", filename, err)
		} else {
			meta.Remote = remote
		}
	}

	metadataJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error creating metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.backupDir, base+".json"), metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("error writing metadata: %w", err)
	}

	log.Printf("Backup created: %s (%d song requests, %.2f KB)", filename, count, float64(meta.SizeBytes)/1024)

	m.cleanOldBackups(m.retentionDays)

	return meta, nil
}

// writeSnapshot writes data to <base>.jsonl, never replacing an existing
// snapshot: on a name clash it tries <base>_1, <base>_2 and so on. It returns
// the base name used.
func (m *Manager) writeSnapshot(base string, data []byte) (string, error) {
	name := base
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(m.backupDir, name+".jsonl"), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) && i <= maxNameAttempts {
			name = fmt.Sprintf("%s_%d", base, i)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("error creating backup file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", fmt.Errorf("error writing backup: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("error writing backup: %w", err)
		}
		return name, nil
	}
}

// cleanOldBackups removes backup files older than the specified number of days.
func (m *Manager) cleanOldBackups(daysToKeep int) {
	files, err := os.ReadDir(m.backupDir)
	if err != nil {
		log.Printf("Error reading backup directory: %v", err)
		return
	}

	cutoff := m.now().AddDate(0, 0, -daysToKeep)
	deleted := 0

	for _, file := range files {
		if file.IsDir() || !strings.HasPrefix(file.Name(), "backup_") {
			continue
		}

		info, err := file.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.backupDir, file.Name())); err != nil {
				log.Printf("Error deleting old backup %s: %v", file.Name(), err)
			} else {
				deleted++
			}
		}
	}

	if deleted > 0 {
		log.Printf("Cleaned up %d old backup files", deleted)
	}
}

// ListBackups returns the metadata of every snapshot, newest first.
func (m *Manager) ListBackups() ([]Metadata, error) {
	backups := make([]Metadata, 0)

	files, err := os.ReadDir(m.backupDir)
	if errors.Is(err, os.ErrNotExist) {
		return backups, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading backup directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.backupDir, file.Name()))
		if err != nil {
			continue
		}

		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		backups = append(backups, meta)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		if backups[i].Timestamp != backups[j].Timestamp {
			return backups[i].Timestamp > backups[j].Timestamp
		}
		return backups[i].Filename > backups[j].Filename
	})

	return backups, nil
}
