package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"styledecor/internal/config"

	"github.com/rs/zerolog"
)

const snapshotPrefix = "styledecor_"

var ErrSnapshotUnsupported = errors.New("snapshots are only supported on sqlite")

// Snapshot writes a consistent copy of the live SQLite database into dir
// and returns the file path.
func (db *DB) Snapshot(ctx context.Context, dir string, at time.Time) (string, error) {
	if db.driver != config.DriverSQLite {
		return "", ErrSnapshotUnsupported
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, snapshotPrefix+at.UTC().Format("20060102_150405")+".db")
	if strings.ContainsRune(path, '\'') {
		return "", fmt.Errorf("backup path %q contains a quote", path)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", path)); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", path, err)
	}
	return path, nil
}

// BackupScheduler takes periodic snapshots and prunes the ones older than
// the retention window.
type BackupScheduler struct {
	db     *DB
	cfg    config.BackupConfig
	logger *zerolog.Logger
	now    func() time.Time
}

func NewBackupScheduler(db *DB, cfg config.BackupConfig, logger *zerolog.Logger) *BackupScheduler {
	return &BackupScheduler{db: db, cfg: cfg, logger: logger, now: time.Now}
}

func (s *BackupScheduler) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info().Msg("backup scheduler disabled")
		return
	}

	interval := s.cfg.IntervalDuration()
	s.logger.Info().Dur("interval", interval).Str("dir", s.cfg.StoragePath).Msg("backup scheduler started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *BackupScheduler) tick(ctx context.Context) {
	path, err := s.db.Snapshot(ctx, s.cfg.StoragePath, s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("backup failed")
		return
	}
	s.logger.Info().Str("path", path).Msg("backup written")

	if removed := s.Prune(); removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("old backups pruned")
	}
}

// Prune deletes snapshots older than RetentionDays and reports how many
// were removed. Files not written by Snapshot are left alone.
func (s *BackupScheduler) Prune() int {
	if s.cfg.RetentionDays <= 0 {
		return 0
	}

	entries, err := os.ReadDir(s.cfg.StoragePath)
	if err != nil {
		s.logger.Error().Err(err).Msg("read backup directory")
		return 0
	}

	cutoff := s.now().AddDate(0, 0, -s.cfg.RetentionDays)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.StoragePath, entry.Name())); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("remove old backup")
			continue
		}
		removed++
	}
	return removed
}
