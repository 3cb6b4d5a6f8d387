package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/scavenger/constants"
	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
)

const (
	tableRecords     = "extraction_records"
	tableFlyers      = "flyers"
	tableExtractions = "flyer_extractions"
	tableEvents      = "published_events"
)

// Each table keeps the entity's JSON document plus the columns we filter or sort on.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS extraction_records (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		doc TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS extraction_records_created_at_idx ON extraction_records (created_at)`,
	`CREATE TABLE IF NOT EXISTS flyers (
		id TEXT PRIMARY KEY,
		created_at BIGINT NOT NULL,
		doc TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS flyer_extractions (
		id TEXT PRIMARY KEY,
		flyer_id TEXT NOT NULL,
		created_at BIGINT NOT NULL,
		doc TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS flyer_extractions_flyer_id_idx ON flyer_extractions (flyer_id)`,
	`CREATE TABLE IF NOT EXISTS published_events (
		id TEXT PRIMARY KEY,
		start_at BIGINT NOT NULL,
		doc TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS published_events_start_at_idx ON published_events (start_at)`,
}

// SQLStore is the document table backend shared by Postgres and SQLite. Queries
// are built with ent's SQL builder for the driver's dialect.
type SQLStore struct {
	drv     *entsql.Driver
	closers []func()
	now     func() time.Time
	logger  *slog.Logger
}

func newSQLStore(drv *entsql.Driver, logger *slog.Logger, closers ...func()) *SQLStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLStore{drv: drv, closers: closers, now: time.Now, logger: logger}
}

// Migrate creates the tables when missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schemaDDL {
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			s.logger.Error("repository.sql.migrate_error", "dialect", s.drv.Dialect(), "error", err)
			return storageError("migrate", err)
		}
	}
	return nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.drv.DB().PingContext(ctx)
}

func (s *SQLStore) Close() error {
	err := s.drv.Close()
	for _, c := range s.closers {
		c()
	}
	return err
}

func (s *SQLStore) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.drv.Dialect())
}

func (s *SQLStore) AppendRecord(ctx context.Context, rec entity.ExtractionRecord) (entity.ExtractionRecord, error) {
	rec = prepareRecord(rec)
	doc, err := marshalDoc(rec)
	if err != nil {
		return entity.ExtractionRecord{}, storageError("encode record", err)
	}
	q, args := s.builder().Insert(tableRecords).
		Columns("id", "created_at", "doc").
		Values(rec.ID, rec.CreatedAtISO, doc).
		Query()
	if err := s.drv.Exec(ctx, q, args, nil); err != nil {
		s.logger.Error("repository.sql.insert_error", "table", tableRecords, "id", rec.ID, "error", err)
		return entity.ExtractionRecord{}, storageError("insert record", err)
	}
	return rec, nil
}

func (s *SQLStore) ListRecords(ctx context.Context) ([]entity.ExtractionRecord, error) {
	q, args := s.builder().Select("doc").
		From(entsql.Table(tableRecords)).
		OrderBy(entsql.Desc("created_at")).
		Query()
	docs, err := s.queryDocs(ctx, q, args)
	if err != nil {
		return nil, err
	}
	out := make([]entity.ExtractionRecord, 0, len(docs))
	for _, d := range docs {
		var rec entity.ExtractionRecord
		if err := unmarshalDoc(d, &rec); err != nil {
			s.logger.Warn("repository.sql.decode_error", "table", tableRecords, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SQLStore) CreateFlyer(ctx context.Context, f entity.Flyer) (entity.Flyer, error) {
	f = prepareFlyer(f, s.now().UTC())
	doc, err := marshalDoc(f)
	if err != nil {
		return entity.Flyer{}, storageError("encode flyer", err)
	}
	q, args := s.builder().Insert(tableFlyers).
		Columns("id", "created_at", "doc").
		Values(f.ID, f.CreatedAt.UnixMilli(), doc).
		Query()
	if err := s.drv.Exec(ctx, q, args, nil); err != nil {
		s.logger.Error("repository.sql.insert_error", "table", tableFlyers, "id", f.ID, "error", err)
		return entity.Flyer{}, storageError("insert flyer", err)
	}
	return f, nil
}

func (s *SQLStore) GetFlyer(ctx context.Context, id string) (entity.Flyer, error) {
	q, args := s.builder().Select("doc").
		From(entsql.Table(tableFlyers)).
		Where(entsql.EQ("id", id)).
		Query()
	docs, err := s.queryDocs(ctx, q, args)
	if err != nil {
		return entity.Flyer{}, err
	}
	if len(docs) == 0 {
		return entity.Flyer{}, common.NotFoundError("Flyer not found")
	}
	var f entity.Flyer
	if err := unmarshalDoc(docs[0], &f); err != nil {
		return entity.Flyer{}, storageError("decode flyer", err)
	}
	return f, nil
}

func (s *SQLStore) UpdateFlyerStatus(ctx context.Context, id string, status constants.FlyerStatus) error {
	return s.updateFlyer(ctx, id, func(f *entity.Flyer, now time.Time) {
		f.Status = status
	})
}

func (s *SQLStore) MarkFlyerExtracted(ctx context.Context, id, extractionID string) error {
	return s.updateFlyer(ctx, id, func(f *entity.Flyer, now time.Time) {
		f.Status = constants.FlyerStatusExtracted
		f.LastExtractionID = &extractionID
		f.ExtractedAt = &now
	})
}

// updateFlyer rewrites the flyer document inside a transaction.
func (s *SQLStore) updateFlyer(ctx context.Context, id string, apply func(f *entity.Flyer, now time.Time)) (err error) {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return storageError("begin tx", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q, args := s.builder().Select("doc").
		From(entsql.Table(tableFlyers)).
		Where(entsql.EQ("id", id)).
		Query()
	rows := &entsql.Rows{}
	if err = tx.Query(ctx, q, args, rows); err != nil {
		return storageError("select flyer", err)
	}
	docs, err := scanDocs(rows)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return common.NotFoundError("Flyer not found")
	}

	var f entity.Flyer
	if err = unmarshalDoc(docs[0], &f); err != nil {
		return storageError("decode flyer", err)
	}
	now := s.now().UTC()
	apply(&f, now)
	f.UpdatedAt = now

	doc, err := marshalDoc(f)
	if err != nil {
		return storageError("encode flyer", err)
	}
	uq, uargs := s.builder().Update(tableFlyers).
		Set("doc", doc).
		Where(entsql.EQ("id", id)).
		Query()
	if err = tx.Exec(ctx, uq, uargs, nil); err != nil {
		return storageError("update flyer", err)
	}
	if err = tx.Commit(); err != nil {
		return storageError("commit", err)
	}
	return nil
}

func (s *SQLStore) AppendExtraction(ctx context.Context, x entity.Extraction) (entity.Extraction, error) {
	x = prepareExtraction(x, s.now().UTC())
	doc, err := marshalDoc(x)
	if err != nil {
		return entity.Extraction{}, storageError("encode extraction", err)
	}
	q, args := s.builder().Insert(tableExtractions).
		Columns("id", "flyer_id", "created_at", "doc").
		Values(x.ID, x.FlyerID, x.CreatedAt.UnixMilli(), doc).
		Query()
	if err := s.drv.Exec(ctx, q, args, nil); err != nil {
		s.logger.Error("repository.sql.insert_error", "table", tableExtractions, "id", x.ID, "error", err)
		return entity.Extraction{}, storageError("insert extraction", err)
	}
	return x, nil
}

func (s *SQLStore) CreateEvent(ctx context.Context, e entity.PublishedEvent) (entity.PublishedEvent, error) {
	e = prepareEvent(e, s.now().UTC())
	doc, err := marshalDoc(e)
	if err != nil {
		return entity.PublishedEvent{}, storageError("encode event", err)
	}
	q, args := s.builder().Insert(tableEvents).
		Columns("id", "start_at", "doc").
		Values(e.ID, e.StartAt.UnixMilli(), doc).
		Query()
	if err := s.drv.Exec(ctx, q, args, nil); err != nil {
		s.logger.Error("repository.sql.insert_error", "table", tableEvents, "id", e.ID, "error", err)
		return entity.PublishedEvent{}, storageError("insert event", err)
	}
	return e, nil
}

func (s *SQLStore) ListEvents(ctx context.Context, from, to time.Time) ([]entity.PublishedEvent, error) {
	q, args := s.builder().Select("doc").
		From(entsql.Table(tableEvents)).
		Where(entsql.And(
			entsql.GTE("start_at", from.UnixMilli()),
			entsql.LTE("start_at", to.UnixMilli()),
		)).
		OrderBy(entsql.Asc("start_at")).
		Query()
	docs, err := s.queryDocs(ctx, q, args)
	if err != nil {
		return nil, err
	}
	out := make([]entity.PublishedEvent, 0, len(docs))
	for _, d := range docs {
		var e entity.PublishedEvent
		if err := unmarshalDoc(d, &e); err != nil {
			s.logger.Warn("repository.sql.decode_error", "table", tableEvents, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *SQLStore) queryDocs(ctx context.Context, q string, args []any) ([]string, error) {
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, q, args, rows); err != nil {
		s.logger.Error("repository.sql.query_error", "dialect", s.drv.Dialect(), "error", err)
		return nil, storageError("query", err)
	}
	return scanDocs(rows)
}

func scanDocs(rows *entsql.Rows) ([]string, error) {
	defer rows.Close()
	var docs []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, storageError("scan", err)
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("rows", err)
	}
	return docs, nil
}

func storageError(op string, err error) error {
	return common.NewAppError(common.CodeStorage, op, fmt.Errorf("%w: %w", common.ErrStorage, err))
}

var _ Store = (*SQLStore)(nil)
var _ Store = (*JSONFileStore)(nil)
