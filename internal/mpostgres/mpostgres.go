package mpostgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"formgateway/internal/model"
	"formgateway/internal/pkg/gpostgresql"
	"formgateway/internal/recordstore"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pageSize = 100

	uniqueViolation = "23505"
)

const schema = `
	CREATE TABLE IF NOT EXISTS submissions (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		email      TEXT NOT NULL,
		phone      TEXT NOT NULL DEFAULT '',
		message    TEXT NOT NULL DEFAULT '',
		created_on TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS submissions_email_lower_idx ON submissions (lower(email));
`

// submissionStore is a Record Store on a Postgres table. Email uniqueness is
// enforced by a unique index, so concurrent duplicates fail at insert time.
type submissionStore struct {
	db gpostgresql.Querier
}

func NewSubmissionStore(db gpostgresql.Querier) recordstore.Store {
	return &submissionStore{
		db: db,
	}
}

// EnsureSchema creates the submissions table and its email index when missing.
func EnsureSchema(ctx context.Context, db gpostgresql.Querier) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create submissions schema: %w", err)
	}
	return nil
}

func (r *submissionStore) CreateRecord(ctx context.Context, fields model.Fields) (model.Record, error) {
	start := time.Now()
	record, err := r.create(ctx, fields)
	recordstore.ObserveRequest("postgres", "create", start, err)
	return record, err
}

func (r *submissionStore) create(ctx context.Context, fields model.Fields) (model.Record, error) {
	query := `
		INSERT INTO submissions (id, name, email, phone, message)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_on
	`
	record := model.Record{
		ID:     uuid.NewString(),
		Fields: fields,
	}

	err := r.db.QueryRow(ctx, query, record.ID, fields.Name, fields.Email, fields.Phone, fields.Message).Scan(&record.CreatedOn)
	if isUniqueViolation(err) {
		return model.Record{}, recordstore.ErrDuplicateEmail
	}
	if err != nil {
		return model.Record{}, fmt.Errorf("insert submission: %w", err)
	}
	return record, nil
}

func (r *submissionStore) ListRecords(ctx context.Context, query recordstore.Query) *recordstore.Pager {
	offset := 0
	return recordstore.NewPager(func(ctx context.Context) ([]model.Record, bool, error) {
		start := time.Now()
		records, err := r.listPage(ctx, query.Email, offset)
		recordstore.ObserveRequest("postgres", "list", start, err)
		if err != nil {
			return nil, false, err
		}

		offset += len(records)
		return records, len(records) == pageSize, nil
	})
}

func (r *submissionStore) listPage(ctx context.Context, email string, offset int) ([]model.Record, error) {
	query := `
		SELECT id, name, email, phone, message, created_on
		FROM submissions
		WHERE ($1 = '' OR lower(email) = lower($1))
		ORDER BY created_on, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, email, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("list submissions at offset %d: %w", offset, err)
	}
	defer rows.Close()

	records := make([]model.Record, 0, pageSize)
	for rows.Next() {
		var rec model.Record
		err := rows.Scan(
			&rec.ID,
			&rec.Fields.Name,
			&rec.Fields.Email,
			&rec.Fields.Phone,
			&rec.Fields.Message,
			&rec.CreatedOn,
		)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions at offset %d: %w", offset, err)
	}
	return records, nil
}

func (r *submissionStore) UpdateRecord(ctx context.Context, id string, fields model.Fields) error {
	start := time.Now()
	err := r.update(ctx, id, fields)
	if errors.Is(err, recordstore.ErrNotFound) {
		recordstore.ObserveRequest("postgres", "update", start, nil)
	} else {
		recordstore.ObserveRequest("postgres", "update", start, err)
	}
	return err
}

func (r *submissionStore) update(ctx context.Context, id string, fields model.Fields) error {
	query := `
		UPDATE submissions
		SET name = $1, email = $2, phone = $3, message = $4
		WHERE id = $5
	`
	tag, err := r.db.Exec(ctx, query, fields.Name, fields.Email, fields.Phone, fields.Message, id)
	if isUniqueViolation(err) {
		return recordstore.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("update submission %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return recordstore.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
