package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"fieldsync/internal/config"
)

// Store manages pending upload persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the upload database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.DatabasePath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add persists a new pending upload. The record is durable when Add
// returns. Fails with ErrDuplicateID when the id is already present.
func (s *Store) Add(ctx context.Context, upload *PendingUpload) error {
	if upload == nil {
		return errors.New("upload is nil")
	}
	if strings.TrimSpace(upload.ID) == "" {
		return errors.New("upload id is required")
	}
	if _, ok := typeSet[upload.Type]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, upload.Type)
	}
	if upload.Payload == nil {
		return errors.New("upload payload is required")
	}
	if got := upload.Payload.UploadType(); got != upload.Type {
		return fmt.Errorf("payload type %s does not match upload type %s", got, upload.Type)
	}
	if upload.Type.RequiresBinary() && (upload.Binary == nil || len(upload.Binary.Data) == 0) {
		return fmt.Errorf("upload type %s requires binary data", upload.Type)
	}
	if !upload.Type.RequiresBinary() && upload.Binary != nil {
		return fmt.Errorf("upload type %s does not carry binary data", upload.Type)
	}
	if upload.RetryCount < 0 {
		return errors.New("retry count must be >= 0")
	}

	payloadJSON, err := marshalPayload(upload.Payload)
	if err != nil {
		return err
	}

	var (
		binaryData        []byte
		binaryName        any
		binaryContentType any
		binaryLocation    any
	)
	if upload.Binary != nil {
		binaryData = upload.Binary.Data
		binaryName = nullableString(upload.Binary.FileName)
		binaryContentType = nullableString(upload.Binary.ContentType)
		binaryLocation = nullableString(upload.Binary.Location)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO pending_uploads (
            id, upload_type, payload,
            binary_data, binary_name, binary_content_type, binary_location,
            created_at_ms, retry_count, priority
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		upload.ID,
		string(upload.Type),
		payloadJSON,
		binaryData,
		binaryName,
		binaryContentType,
		binaryLocation,
		upload.CreatedAt.UnixMilli(),
		upload.RetryCount,
		upload.Priority,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateID, upload.ID)
		}
		return fmt.Errorf("insert pending upload: %w", err)
	}
	return nil
}

// GetAll returns a consistent snapshot of every pending upload in
// processing order: higher priority first, oldest first within a band.
func (s *Store) GetAll(ctx context.Context) ([]*PendingUpload, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+uploadColumns+` FROM pending_uploads
         ORDER BY priority DESC, created_at_ms ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*PendingUpload
	for rows.Next() {
		upload, err := scanUpload(rows)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, upload)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending uploads: %w", err)
	}
	return uploads, nil
}

// GetByID fetches a pending upload by identifier. Returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id string) (*PendingUpload, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+uploadColumns+` FROM pending_uploads WHERE id = ?`, id)
	upload, err := scanUpload(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get pending upload: %w", err)
	}
	return upload, nil
}

// Delete removes a record by identifier. Only the processor calls this,
// and only after a handler confirmed delivery.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_uploads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pending upload: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// UpdateRetryCount sets the retry counter for a record.
func (s *Store) UpdateRetryCount(ctx context.Context, id string, retryCount int) error {
	if retryCount < 0 {
		return errors.New("retry count must be >= 0")
	}
	res, err := s.db.ExecContext(ctx, `UPDATE pending_uploads SET retry_count = ? WHERE id = ?`, retryCount, id)
	if err != nil {
		return fmt.Errorf("update retry count: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Count returns the number of pending uploads.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pending_uploads`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count pending uploads: %w", err)
	}
	return count, nil
}

// Stats aggregates queue state for diagnostics: totals per type plus the
// number of records whose retry budget is exhausted.
type Stats struct {
	Total     int
	ByType    map[Type]int
	Exhausted int
}

// Stats returns per-type counts and the exhausted tally for the given
// retry budget.
func (s *Store) Stats(ctx context.Context, maxRetries int) (Stats, error) {
	stats := Stats{ByType: make(map[Type]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT upload_type, COUNT(1) FROM pending_uploads GROUP BY upload_type`)
	if err != nil {
		return Stats{}, fmt.Errorf("upload stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var uploadType string
		var count int
		if err := rows.Scan(&uploadType, &count); err != nil {
			return Stats{}, fmt.Errorf("scan upload stats: %w", err)
		}
		stats.ByType[Type(uploadType)] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate upload stats: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pending_uploads WHERE retry_count >= ?`, maxRetries)
	if err := row.Scan(&stats.Exhausted); err != nil {
		return Stats{}, fmt.Errorf("count exhausted uploads: %w", err)
	}
	return stats, nil
}

// Clear removes all pending uploads. Destructive; CLI-only.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_uploads`)
	if err != nil {
		return 0, fmt.Errorf("clear pending uploads: %w", err)
	}
	return res.RowsAffected()
}

// ClearExhausted removes records that burned their retry budget. The
// processor never deletes these on its own; a human does, here.
func (s *Store) ClearExhausted(ctx context.Context, maxRetries int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pending_uploads WHERE retry_count >= ?`, maxRetries)
	if err != nil {
		return 0, fmt.Errorf("clear exhausted uploads: %w", err)
	}
	return res.RowsAffected()
}

// ResetRetries zeroes the retry counter on exhausted records so the next
// pass picks them up again.
func (s *Store) ResetRetries(ctx context.Context, maxRetries int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE pending_uploads SET retry_count = 0 WHERE retry_count >= ?`, maxRetries)
	if err != nil {
		return 0, fmt.Errorf("reset retries: %w", err)
	}
	return res.RowsAffected()
}

// DatabaseHealth captures diagnostic information about the upload database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}

// CheckHealth returns diagnostic information about the upload database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{DBPath: s.path}

	if s.path == "" {
		return health, errors.New("upload database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return health, nil
		}
		return health, fmt.Errorf("stat upload database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("upload database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("upload database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping upload database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'pending_uploads'")
	if err := row.Scan(&tableName); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return health, nil
		}
		health.Error = err.Error()
		return health, fmt.Errorf("query table info: %w", err)
	}
	health.TableExists = true

	row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM pending_uploads")
	if err := row.Scan(&health.TotalItems); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("count pending uploads: %w", err)
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

const uploadColumns = "id, upload_type, payload, binary_data, binary_name, binary_content_type, binary_location, created_at_ms, retry_count, priority"

func scanUpload(scanner interface{ Scan(dest ...any) error }) (*PendingUpload, error) {
	var (
		id                string
		uploadType        string
		payloadJSON       string
		binaryData        []byte
		binaryName        sql.NullString
		binaryContentType sql.NullString
		binaryLocation    sql.NullString
		createdAtMS       int64
		retryCount        int
		priority          int
	)

	if err := scanner.Scan(
		&id,
		&uploadType,
		&payloadJSON,
		&binaryData,
		&binaryName,
		&binaryContentType,
		&binaryLocation,
		&createdAtMS,
		&retryCount,
		&priority,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan pending upload: %w", err)
	}

	payload, err := unmarshalPayload(Type(uploadType), payloadJSON)
	if err != nil {
		return nil, err
	}

	upload := &PendingUpload{
		ID:         id,
		Type:       Type(uploadType),
		Payload:    payload,
		CreatedAt:  time.UnixMilli(createdAtMS).UTC(),
		RetryCount: retryCount,
		Priority:   priority,
	}
	if len(binaryData) > 0 {
		upload.Binary = &Binary{
			Data:        binaryData,
			FileName:    binaryName.String,
			ContentType: binaryContentType.String,
			Location:    binaryLocation.String,
		}
	}
	return upload, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: pending_uploads.id")
}
