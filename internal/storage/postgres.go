// Package storage persists query analytics records in PostgreSQL and
// enforces record-level expiry: the expiry timestamp is assigned once at
// insert time and a background sweeper deletes rows past it.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonesrussell/search-analytics/internal/domain"
	"github.com/jonesrussell/search-analytics/internal/logger"
)

// ErrNotFound is returned by FindMatch when no record satisfies the
// filter. Callers treat it as the fallback-creation trigger, not a
// failure.
var ErrNotFound = errors.New("no matching query record")

// Store reads and writes query records. All operations are wrapped in a
// bounded timeout; the underlying pool reconnects on its own.
type Store struct {
	db      *sql.DB
	policy  ExpiryPolicy
	timeout time.Duration
	log     logger.Logger
}

// NewStore creates a record store with the given expiry policy and
// per-call timeout.
func NewStore(db *sql.DB, policy ExpiryPolicy, timeout time.Duration, log logger.Logger) *Store {
	return &Store{
		db:      db,
		policy:  policy,
		timeout: timeout,
		log:     log,
	}
}

// recordColumns is the column list shared by SELECT statements.
const recordColumns = "id, query_text, handler_category, session_id, client_ip, " +
	"ts, expires_at, result_count, response_time_ms, has_results, cache_hit, " +
	"geo, clicked_results, last_click_ts"

// Insert persists a new query record. The record's timestamp defaults to
// now, an empty query text is replaced with the placeholder sentinel, and
// expires_at is computed here, exactly once, from the handler category.
// Returns the store-assigned id.
func (s *Store) Insert(ctx context.Context, rec *domain.QueryRecord) (string, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.QueryText == "" {
		rec.QueryText = domain.EmptyQueryPlaceholder
	}
	rec.ExpiresAt = s.policy.ExpiresAt(rec.HandlerCategory, rec.Timestamp)

	if rec.ClickedResults == nil {
		rec.ClickedResults = []domain.ClickedResult{}
	}
	clicks, err := json.Marshal(rec.ClickedResults)
	if err != nil {
		return "", fmt.Errorf("marshal clicked results: %w", err)
	}

	var geo any
	if rec.Geo != nil {
		geoJSON, geoErr := json.Marshal(rec.Geo)
		if geoErr != nil {
			return "", fmt.Errorf("marshal geo: %w", geoErr)
		}
		geo = geoJSON
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO query_records
			(query_text, handler_category, session_id, client_ip, ts, expires_at,
			 result_count, response_time_ms, has_results, cache_hit, geo,
			 clicked_results, last_click_ts)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id`,
		rec.QueryText, string(rec.HandlerCategory),
		nullString(rec.SessionID), nullString(rec.ClientIP),
		rec.Timestamp, rec.ExpiresAt,
		rec.ResultCount, rec.ResponseTimeMs, rec.HasResults, rec.CacheHit,
		geo, clicks, nullTime(rec.LastClickTimestamp),
	)

	if err := row.Scan(&rec.ID); err != nil {
		return "", fmt.Errorf("insert query record: %w", err)
	}

	return rec.ID, nil
}

// FindMatch returns the single most-recent record satisfying the filter,
// or ErrNotFound. Ties on equal timestamps break toward the later id so
// the result stays deterministic.
func (s *Store) FindMatch(ctx context.Context, filter domain.MatchFilter) (*domain.QueryRecord, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + recordColumns + " FROM query_records")
	sb.WriteString(" WHERE lower(query_text) = lower($1) AND ts >= $2")

	args := []any{filter.QueryText, filter.Since}
	if filter.SessionID != "" {
		args = append(args, filter.SessionID)
		sb.WriteString(" AND session_id = $" + strconv.Itoa(len(args)))
	}
	if filter.ClientIP != "" {
		args = append(args, filter.ClientIP)
		sb.WriteString(" AND client_ip = $" + strconv.Itoa(len(args)))
	}
	sb.WriteString(" ORDER BY ts DESC, id DESC LIMIT 1")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := scanRecord(s.db.QueryRowContext(ctx, sb.String(), args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find matching record: %w", err)
	}

	return rec, nil
}

// AppendClick atomically appends a click entry to a record's list and
// advances its last-click timestamp. The append is a single UPDATE
// statement, so two concurrent appends to the same record both land; the
// record's expiry is deliberately untouched.
func (s *Store) AppendClick(ctx context.Context, recordID string, click domain.ClickedResult) error {
	entry, err := json.Marshal(click)
	if err != nil {
		return fmt.Errorf("marshal click entry: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE query_records
		 SET clicked_results = clicked_results || $2::jsonb,
		     last_click_ts = $3
		 WHERE id = $1`,
		recordID, entry, click.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append click: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("append click rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Get returns a record by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, recordID string) (*domain.QueryRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rec, err := scanRecord(s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM query_records WHERE id = $1", recordID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get query record: %w", err)
	}

	return rec, nil
}

// BackfillExpiry assigns expires_at to one batch of legacy records that
// lack it, deriving each expiry from the record's own creation time and
// category. The predicate makes the operation restartable: a rerun picks
// up exactly where the previous batch stopped. Returns the number of
// rows updated and the number still remaining so callers can poll to
// completion.
func (s *Store) BackfillExpiry(ctx context.Context, batchSize int) (updated, remaining int64, err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`UPDATE query_records
		 SET expires_at = ts + CASE
			WHEN handler_category IN ('suggest', 'suggestPeople', 'suggestPrograms')
			THEN $1::interval ELSE $2::interval END
		 WHERE id IN (
			SELECT id FROM query_records WHERE expires_at IS NULL LIMIT $3
		 )`,
		intervalString(s.policy.SuggestTTL), intervalString(s.policy.SearchTTL), batchSize,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("backfill expiry batch: %w", err)
	}

	updated, err = res.RowsAffected()
	if err != nil {
		return 0, 0, fmt.Errorf("backfill rows affected: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM query_records WHERE expires_at IS NULL")
	if err := row.Scan(&remaining); err != nil {
		return updated, 0, fmt.Errorf("count remaining backfill rows: %w", err)
	}

	s.log.Info("Expiry backfill batch applied",
		logger.Int64("updated", updated),
		logger.Int64("remaining", remaining),
	)

	return updated, remaining, nil
}

// SweepExpired deletes up to limit records whose expiry has passed.
func (s *Store) SweepExpired(ctx context.Context, limit int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM query_records
		 WHERE id IN (
			SELECT id FROM query_records WHERE expires_at < now() LIMIT $1
		 )`,
		limit,
	)
	if err != nil {
		return 0, fmt.Errorf("sweep expired records: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep rows affected: %w", err)
	}

	return deleted, nil
}

// Ping verifies database connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.db.PingContext(ctx)
}

// rowScanner abstracts *sql.Row for record scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.QueryRecord, error) {
	var (
		rec       domain.QueryRecord
		category  string
		sessionID sql.NullString
		clientIP  sql.NullString
		geo       []byte
		clicks    []byte
		lastClick sql.NullTime
	)

	err := row.Scan(
		&rec.ID, &rec.QueryText, &category, &sessionID, &clientIP,
		&rec.Timestamp, &rec.ExpiresAt,
		&rec.ResultCount, &rec.ResponseTimeMs, &rec.HasResults, &rec.CacheHit,
		&geo, &clicks, &lastClick,
	)
	if err != nil {
		return nil, err
	}

	rec.HandlerCategory = domain.HandlerCategory(category)
	rec.SessionID = sessionID.String
	rec.ClientIP = clientIP.String

	if len(geo) > 0 {
		rec.Geo = &domain.GeoLocation{}
		if err := json.Unmarshal(geo, rec.Geo); err != nil {
			return nil, fmt.Errorf("unmarshal geo: %w", err)
		}
	}
	if len(clicks) > 0 {
		if err := json.Unmarshal(clicks, &rec.ClickedResults); err != nil {
			return nil, fmt.Errorf("unmarshal clicked results: %w", err)
		}
	}
	if lastClick.Valid {
		t := lastClick.Time
		rec.LastClickTimestamp = &t
	}

	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// intervalString renders a duration as a PostgreSQL interval literal.
func intervalString(d time.Duration) string {
	return strconv.FormatInt(int64(d.Seconds()), 10) + " seconds"
}
