package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"transvox/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "queue.db")
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
	if err := store.ensureSchema(context.Background()); err != nil {
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
func (s *Store) Path() string { return s.path }

// NewSource enqueues a remote URL for the full pipeline, starting at download.
func (s *Store) NewSource(ctx context.Context, url string, opts Options) (*Item, error) {
	item := newItemFromOptions(opts)
	item.Source = url
	item.Status = StatusPending
	return s.insert(ctx, item)
}

// NewVideoFile enqueues a local video that skips downloading and begins at
// audio extraction.
func (s *Store) NewVideoFile(ctx context.Context, path string, opts Options) (*Item, error) {
	item := newItemFromOptions(opts)
	item.Source = path
	item.VideoFile = path
	item.Status = StatusDownloaded
	if item.Title == "" {
		item.Title = inferTitleFromPath(path)
	}
	return s.insert(ctx, item)
}

// NewAudioFile enqueues audio that skips straight to transcription.
func (s *Store) NewAudioFile(ctx context.Context, path string, opts Options) (*Item, error) {
	item := newItemFromOptions(opts)
	item.Source = path
	item.AudioFile = path
	item.Status = StatusExtracted
	if item.Title == "" {
		item.Title = inferTitleFromPath(path)
	}
	return s.insert(ctx, item)
}

// NewTranscriptFile enqueues an existing transcript for translation and
// optional synthesis.
func (s *Store) NewTranscriptFile(ctx context.Context, path string, opts Options) (*Item, error) {
	item := newItemFromOptions(opts)
	item.Source = path
	item.TranscriptFile = path
	item.Status = StatusTranscribed
	if item.Title == "" {
		item.Title = inferTitleFromPath(path)
	}
	return s.insert(ctx, item)
}

func newItemFromOptions(opts Options) *Item {
	return &Item{
		Title:          opts.Title,
		ModelSize:      opts.ModelSize,
		TargetLanguage: opts.TargetLanguage,
		Diarize:        opts.Diarize,
		Synthesize:     opts.Synthesize,
		TrimStart:      opts.TrimStart,
		TrimEnd:        opts.TrimEnd,
	}
}

func (s *Store) insert(ctx context.Context, item *Item) (*Item, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (
            source, title, status, video_file, audio_file, transcript_file,
            translated_file, synthesized_file, detected_language, target_language,
            model_size, diarize, synthesize, trim_start, trim_end,
            progress_percent, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableString(item.Source),
		nullableString(item.Title),
		item.Status,
		nullableString(item.VideoFile),
		nullableString(item.AudioFile),
		nullableString(item.TranscriptFile),
		nullableString(item.TranslatedFile),
		nullableString(item.SynthesizedFile),
		nullableString(item.DetectedLanguage),
		nullableString(item.TargetLanguage),
		nullableString(item.ModelSize),
		boolToInt(item.Diarize),
		boolToInt(item.Synthesize),
		nullableString(item.TrimStart),
		nullableString(item.TrimEnd),
		0.0,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists changes to an existing queue item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET source = ?, title = ?, status = ?, video_file = ?, audio_file = ?,
             transcript_file = ?, translated_file = ?, synthesized_file = ?,
             detected_language = ?, target_language = ?, model_size = ?,
             diarize = ?, synthesize = ?, trim_start = ?, trim_end = ?,
             error_message = ?, progress_stage = ?, progress_percent = ?,
             progress_message = ?, updated_at = ?
         WHERE id = ?`,
		nullableString(item.Source),
		nullableString(item.Title),
		item.Status,
		nullableString(item.VideoFile),
		nullableString(item.AudioFile),
		nullableString(item.TranscriptFile),
		nullableString(item.TranslatedFile),
		nullableString(item.SynthesizedFile),
		nullableString(item.DetectedLanguage),
		nullableString(item.TargetLanguage),
		nullableString(item.ModelSize),
		boolToInt(item.Diarize),
		boolToInt(item.Synthesize),
		nullableString(item.TrimStart),
		nullableString(item.TrimEnd),
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		item.ProgressPercent,
		nullableString(item.ProgressMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

// List returns queue items filtered by status set (or all items when no status is provided).
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest item matching any of the provided statuses.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := makePlaceholders(len(statuses))
	args := make([]any, len(statuses))
	for i, status := range statuses {
		args[i] = status
	}

	query := `SELECT ` + itemColumns + ` FROM queue_items WHERE status IN (` + placeholders + `) ORDER BY created_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ResetStuckProcessing resets items left in processing states by an interrupted
// run back to the start status of their stage.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	var total int64
	for processing, start := range map[Status]Status{
		StatusDownloading:  StatusPending,
		StatusExtracting:   StatusDownloaded,
		StatusTranscribing: StatusExtracted,
		StatusTranslating:  StatusTranscribed,
		StatusSynthesizing: StatusTranslated,
	} {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE queue_items
             SET status = ?, progress_stage = 'Reset from stuck processing',
                 progress_percent = 0, progress_message = NULL, updated_at = ?
             WHERE status = ?`,
			start,
			now,
			processing,
		)
		if err != nil {
			return total, fmt.Errorf("reset stuck items: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("rows affected: %w", err)
		}
		total += affected
	}
	return total, nil
}

// RetryFailed requeues failed items at the furthest stage their recorded
// artifacts support, so a late failure does not redo the earlier stages.
// With no ids every failed item is retried.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	var (
		query string
		args  []any
	)
	if len(ids) == 0 {
		query = `SELECT ` + itemColumns + ` FROM queue_items WHERE status = ?`
		args = []any{StatusFailed}
	} else {
		query = `SELECT ` + itemColumns + ` FROM queue_items
            WHERE status = ? AND id IN (` + makePlaceholders(len(ids)) + `)`
		args = append(args, StatusFailed)
		for _, id := range ids {
			args = append(args, id)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("list failed items: %w", err)
	}
	items := make([]*Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan failed item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("close rows: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	var retried int64
	for _, item := range items {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE queue_items
            SET status = ?, progress_stage = 'Retry requested', progress_percent = 0,
                progress_message = NULL, error_message = NULL, updated_at = ?
            WHERE id = ? AND status = ?`,
			retryStatus(item),
			now,
			item.ID,
			StatusFailed,
		)
		if err != nil {
			return retried, fmt.Errorf("retry item %d: %w", item.ID, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return retried, fmt.Errorf("rows affected: %w", err)
		}
		retried += affected
	}
	return retried, nil
}

// retryStatus picks the restart point implied by the artifacts an item has
// already produced.
func retryStatus(item *Item) Status {
	switch {
	case item.TranslatedFile != "":
		return StatusTranslated
	case item.TranscriptFile != "":
		return StatusTranscribed
	case item.AudioFile != "":
		return StatusExtracted
	case item.VideoFile != "":
		return StatusDownloaded
	default:
		return StatusPending
	}
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

// Health aggregates queue state for diagnostic output.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch status {
		case StatusPending:
			health.Pending += count
		case StatusFailed:
			health.Failed += count
		case StatusCompleted:
			health.Completed += count
		default:
			if _, ok := processingStatuses[status]; ok {
				health.Processing += count
			}
		}
	}
	return health, nil
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed items from the queue.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

const itemColumns = "id, source, title, status, video_file, audio_file, transcript_file, translated_file, synthesized_file, detected_language, target_language, model_size, diarize, synthesize, trim_start, trim_end, error_message, progress_stage, progress_percent, progress_message, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id              int64
		source          sql.NullString
		title           sql.NullString
		statusStr       string
		videoFile       sql.NullString
		audioFile       sql.NullString
		transcriptFile  sql.NullString
		translatedFile  sql.NullString
		synthesizedFile sql.NullString
		detectedLang    sql.NullString
		targetLang      sql.NullString
		modelSize       sql.NullString
		diarize         sql.NullInt64
		synthesize      sql.NullInt64
		trimStart       sql.NullString
		trimEnd         sql.NullString
		errorMessage    sql.NullString
		progressStage   sql.NullString
		progressPercent sql.NullFloat64
		progressMessage sql.NullString
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&source,
		&title,
		&statusStr,
		&videoFile,
		&audioFile,
		&transcriptFile,
		&translatedFile,
		&synthesizedFile,
		&detectedLang,
		&targetLang,
		&modelSize,
		&diarize,
		&synthesize,
		&trimStart,
		&trimEnd,
		&errorMessage,
		&progressStage,
		&progressPercent,
		&progressMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:               id,
		Source:           source.String,
		Title:            title.String,
		Status:           Status(statusStr),
		VideoFile:        videoFile.String,
		AudioFile:        audioFile.String,
		TranscriptFile:   transcriptFile.String,
		TranslatedFile:   translatedFile.String,
		SynthesizedFile:  synthesizedFile.String,
		DetectedLanguage: detectedLang.String,
		TargetLanguage:   targetLang.String,
		ModelSize:        modelSize.String,
		Diarize:          diarize.Valid && diarize.Int64 != 0,
		Synthesize:       synthesize.Valid && synthesize.Int64 != 0,
		TrimStart:        trimStart.String,
		TrimEnd:          trimEnd.String,
		ErrorMessage:     errorMessage.String,
		ProgressStage:    progressStage.String,
		ProgressPercent:  progressPercent.Float64,
		ProgressMessage:  progressMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func inferTitleFromPath(path string) string {
	base := strings.TrimSpace(filepath.Base(path))
	if base == "" {
		return "Manual Import"
	}
	ext := filepath.Ext(base)
	base = strings.TrimSuffix(base, ext)
	cleaned := strings.TrimSpace(base)
	if cleaned == "" {
		return "Manual Import"
	}
	return cleaned
}
