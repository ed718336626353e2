package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"marriage-registry/internal/certificate/models"
	id "marriage-registry/pkg/domain"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// PostgresStore persists certificates in the certificates table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const certificateColumns = `
	id, canonical_number, book_number, volume_number, volume_letter, volume_year,
	serial_number, serial_year, page_number, party_one, party_two, marriage_date,
	registered_at, status, revoked_at, revocation_reason, issued_by`

func (s *PostgresStore) Save(ctx context.Context, c *models.Certificate) error {
	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	n := c.Number
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID),
		c.CanonicalNumber,
		n.Book, n.Volume, n.VolumeLetter, n.VolumeYear, n.Serial, n.SerialYear, n.Page,
		c.PartyOne,
		c.PartyTwo,
		c.MarriageDate,
		c.RegisteredAt,
		string(c.Status),
		nullTime(c.RevokedAt),
		c.RevocationReason,
		c.IssuedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("save certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, certID id.CertificateID) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	c, err := scanCertificate(s.db.QueryRowContext(ctx, query, uuid.UUID(certID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find certificate by id: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByCanonical(ctx context.Context, canonical string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE canonical_number = $1`
	c, err := scanCertificate(s.db.QueryRowContext(ctx, query, canonical))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find certificate by canonical number: %w", err)
	}
	return c, nil
}

// Revoke writes the revocation state if the row is still active. Number
// fields are never rewritten.
func (s *PostgresStore) Revoke(ctx context.Context, c *models.Certificate) error {
	query := `
		UPDATE certificates
		SET status = $2, revoked_at = $3, revocation_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(c.ID),
		string(models.StatusRevoked),
		nullTime(c.RevokedAt),
		c.RevocationReason,
		string(models.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("revoke certificate: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke certificate rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM certificates WHERE id = $1)`, uuid.UUID(c.ID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check certificate exists: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAlreadyRevoked
}

func (s *PostgresStore) List(ctx context.Context, offset, limit int) ([]*models.Certificate, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM certificates`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count certificates: %w", err)
	}

	query := `SELECT ` + certificateColumns + `
		FROM certificates
		ORDER BY registered_at ASC, id ASC
		OFFSET $1 LIMIT $2`
	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	certs := make([]*models.Certificate, 0, limit)
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate certificates: %w", err)
	}
	return certs, total, nil
}

type certificateRow interface {
	Scan(dest ...any) error
}

func scanCertificate(row certificateRow) (*models.Certificate, error) {
	var (
		c         models.Certificate
		rawID     uuid.UUID
		status    string
		revokedAt sql.NullTime
	)
	n := &c.Number
	if err := row.Scan(
		&rawID, &c.CanonicalNumber,
		&n.Book, &n.Volume, &n.VolumeLetter, &n.VolumeYear, &n.Serial, &n.SerialYear, &n.Page,
		&c.PartyOne, &c.PartyTwo, &c.MarriageDate, &c.RegisteredAt,
		&status, &revokedAt, &c.RevocationReason, &c.IssuedBy,
	); err != nil {
		return nil, err
	}
	c.ID = id.CertificateID(rawID)
	c.Status = models.Status(status)
	c.MarriageDate = c.MarriageDate.UTC()
	c.RegisteredAt = c.RegisteredAt.UTC()
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		c.RevokedAt = &t
	}
	return &c, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
