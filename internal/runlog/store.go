// Package runlog persists one summary row per pipeline run.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/forPelevin/clipfeed/internal/services"
	"github.com/forPelevin/clipfeed/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// createdLayout has a fixed width so created_at sorts lexically.
const createdLayout = "2006-01-02T15:04:05.000000000Z07:00"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string
	DSN    string
}

// Store opens its database on first use so a misconfigured run log never
// blocks the pipeline from starting.
type Store struct {
	cfg    Config
	logger zerolog.Logger

	once    sync.Once
	db      *sql.DB
	openErr error
}

func New(cfg Config, logger zerolog.Logger) *Store {
	return &Store{cfg: cfg, logger: logger.With().Str("component", "runlog").Logger()}
}

func (s *Store) open(ctx context.Context) (*sql.DB, error) {
	s.once.Do(func() {
		s.db, s.openErr = s.connect(ctx)
		if s.openErr != nil {
			s.openErr = services.Wrap(services.ErrLogging, "runlog", "open", s.cfg.Driver, s.openErr)
		}
	})
	return s.db, s.openErr
}

func (s *Store) connect(ctx context.Context) (*sql.DB, error) {
	if strings.TrimSpace(s.cfg.DSN) == "" {
		return nil, errors.New("dsn is required")
	}
	switch s.cfg.Driver {
	case DriverSQLite:
		if dir := filepath.Dir(s.cfg.DSN); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", s.cfg.Driver)
	}

	db, err := sql.Open(s.cfg.Driver, s.cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", s.cfg.Driver, err)
	}
	if s.cfg.Driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA foreign_keys = ON",
			"PRAGMA busy_timeout = 5000",
		}
		for _, pragma := range pragmas {
			if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
				_ = db.Close()
				return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
			}
		}
	} else {
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", s.cfg.Driver, err)
	}
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	s.logger.Debug().Str("driver", s.cfg.Driver).Msg("run log ready")
	return db, nil
}

// Close closes the underlying connection if it was ever opened. It waits
// for an open already in progress, and a store closed before first use
// never opens.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.once.Do(func() {
		s.openErr = services.Wrap(services.ErrLogging, "runlog", "open", "store closed", nil)
	})
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) AppendRunLog(ctx context.Context, row types.RunLogRow) error {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	status, err := json.Marshal(row.UploadStatus)
	if err != nil {
		return services.Wrap(services.ErrLogging, "runlog", "append", "encode upload status", err)
	}
	if row.UploadStatus == nil {
		status = []byte("{}")
	}
	created := row.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	_, err = db.ExecContext(ctx, s.rebind(`INSERT INTO run_log (
            run_id, video_id, video_url, duration_ms, title, transcript,
            viral_score, viral_reason, related_topic, generated_caption, strategy,
            clips_requested, clips_processed, clips_uploaded, upload_status, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		row.RunID,
		row.VideoID,
		row.VideoURL,
		row.DurationMS,
		row.Title,
		row.Transcript,
		row.ViralScore,
		row.ViralReason,
		row.RelatedTopic,
		row.GeneratedCaption,
		row.Strategy,
		row.ClipsRequested,
		row.ClipsProcessed,
		row.ClipsUploaded,
		string(status),
		created.UTC().Format(createdLayout),
	)
	if err != nil {
		return services.Wrap(services.ErrLogging, "runlog", "append", row.RunID, err)
	}
	return nil
}

// Recent returns the newest rows first.
func (s *Store) Recent(ctx context.Context, limit int) ([]types.RunLogRow, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, s.rebind(`SELECT
            run_id, video_id, video_url, duration_ms, title, transcript,
            viral_score, viral_reason, related_topic, generated_caption, strategy,
            clips_requested, clips_processed, clips_uploaded, upload_status, created_at
        FROM run_log ORDER BY created_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, services.Wrap(services.ErrLogging, "runlog", "recent", "query", err)
	}
	defer rows.Close()

	var out []types.RunLogRow
	for rows.Next() {
		var (
			r       types.RunLogRow
			status  string
			created string
		)
		if err := rows.Scan(
			&r.RunID, &r.VideoID, &r.VideoURL, &r.DurationMS, &r.Title, &r.Transcript,
			&r.ViralScore, &r.ViralReason, &r.RelatedTopic, &r.GeneratedCaption, &r.Strategy,
			&r.ClipsRequested, &r.ClipsProcessed, &r.ClipsUploaded, &status, &created,
		); err != nil {
			return nil, services.Wrap(services.ErrLogging, "runlog", "recent", "scan", err)
		}
		if status != "" {
			if err := json.Unmarshal([]byte(status), &r.UploadStatus); err != nil {
				s.logger.Warn().Err(err).Str("run_id", r.RunID).Msg("bad upload status json")
			}
		}
		if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = ts
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrLogging, "runlog", "recent", "iterate", err)
	}
	return out, nil
}

// rebind turns ? placeholders into $n for postgres.
func (s *Store) rebind(query string) string {
	if s.cfg.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
