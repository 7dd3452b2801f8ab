package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SignupRequestsTable is the workflow-record table for provisioning attempts.
const SignupRequestsTable = "platform.signup_requests"

// SignupRecord is a row of platform.signup_requests. The record is created at
// the start of a provisioning attempt and terminal-updated exactly once by the
// pipeline that created it.
type SignupRecord struct {
	ID              uuid.UUID  `db:"id"`
	RequestedSlug   string     `db:"requested_slug"`
	CompanyName     string     `db:"company_name"`
	Email           string     `db:"email"`
	ContactPhoneEnc *string    `db:"contact_phone_enc"`
	RequestID       *string    `db:"request_id"`
	Status          string     `db:"status"`
	Error           *string    `db:"error"`
	TenantID        *uuid.UUID `db:"tenant_id"`
	CreatedAt       time.Time  `db:"created_at"`
	CompletedAt     *time.Time `db:"completed_at"`
}

// SignupStore provides access to the signup_requests table.
type SignupStore struct {
	pool *pgxpool.Pool
}

// NewSignupStore creates a store; assumes the bootstrap DDL already ran.
func NewSignupStore(ctx context.Context, pool *pgxpool.Pool) (*SignupStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SignupStore{pool: pool}, nil
}

// Create inserts a signup request in status "processing".
func (s *SignupStore) Create(ctx context.Context, rec SignupRecord) (SignupRecord, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	row := s.pool.QueryRow(ctx, `
        INSERT INTO `+SignupRequestsTable+`
            (id, requested_slug, company_name, email, contact_phone_enc, request_id, status)
        VALUES ($1, $2, $3, $4, $5, $6, 'processing')
        RETURNING id, requested_slug, company_name, email, contact_phone_enc,
                  request_id, status, error, tenant_id, created_at, completed_at
    `, rec.ID, rec.RequestedSlug, rec.CompanyName, rec.Email, rec.ContactPhoneEnc, rec.RequestID)

	return scanSignupRecord(row)
}

// MarkFailed terminal-updates the request with a failure reason.
func (s *SignupStore) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE `+SignupRequestsTable+`
        SET status = 'failed', error = $2, completed_at = now()
        WHERE id = $1
    `, id, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// MarkCompleted terminal-updates the request and links the created tenant.
func (s *SignupStore) MarkCompleted(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
        UPDATE `+SignupRequestsTable+`
        SET status = 'completed', tenant_id = $2, completed_at = now()
        WHERE id = $1
    `, id, tenantID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// Get fetches a signup request by id.
func (s *SignupStore) Get(ctx context.Context, id uuid.UUID) (SignupRecord, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT id, requested_slug, company_name, email, contact_phone_enc,
               request_id, status, error, tenant_id, created_at, completed_at
        FROM `+SignupRequestsTable+`
        WHERE id = $1
    `, id)
	return scanSignupRecord(row)
}

func scanSignupRecord(row interface{ Scan(...any) error }) (SignupRecord, error) {
	var rec SignupRecord
	err := row.Scan(
		&rec.ID, &rec.RequestedSlug, &rec.CompanyName, &rec.Email,
		&rec.ContactPhoneEnc, &rec.RequestID, &rec.Status, &rec.Error,
		&rec.TenantID, &rec.CreatedAt, &rec.CompletedAt,
	)
	if err != nil {
		return SignupRecord{}, err
	}
	return rec, nil
}
