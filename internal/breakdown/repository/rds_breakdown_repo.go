package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/TriB-P/mediabox-sub008/internal/audit"
	"github.com/TriB-P/mediabox-sub008/internal/breakdown/domain"
	"github.com/TriB-P/mediabox-sub008/internal/platform/awsclient"
)

// RdsBreakdownRepository keeps breakdowns in PostgreSQL.
//
// Expected schema:
//
//	CREATE TABLE breakdowns (
//	    id               TEXT PRIMARY KEY,
//	    campaign_id      TEXT NOT NULL,
//	    name             TEXT NOT NULL,
//	    type             TEXT NOT NULL,
//	    start_date       DATE,
//	    end_date         DATE,
//	    is_default       BOOLEAN NOT NULL DEFAULT FALSE,
//	    custom_periods   JSONB NOT NULL DEFAULT '[]',
//	    audit_created_by TEXT NOT NULL,
//	    audit_created_at TIMESTAMPTZ NOT NULL,
//	    audit_updated_by TEXT,
//	    audit_updated_at TIMESTAMPTZ
//	);
type RdsBreakdownRepository struct {
	db *sql.DB
}

// NewRdsBreakdownRepository opens an IAM-authenticated connection from cfg.
func NewRdsBreakdownRepository(ctx context.Context, cfg *awsclient.Config) (*RdsBreakdownRepository, error) {
	rdsClient, err := cfg.NewRDSClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed creating the AWS RDS Client: %w", err)
	}

	return &RdsBreakdownRepository{db: rdsClient.Client}, nil
}

// NewRdsBreakdownRepositoryFromDB wraps an already opened handle.
func NewRdsBreakdownRepositoryFromDB(db *sql.DB) *RdsBreakdownRepository {
	return &RdsBreakdownRepository{db: db}
}

const selectBreakdownColumns = `
	SELECT id, name, type, start_date, end_date, is_default, custom_periods,
	       audit_created_by, audit_created_at, audit_updated_by, audit_updated_at
	FROM breakdowns`

// ListByCampaign loads every breakdown of a campaign.
//
// Example:
//
//	breakdowns, err := repo.ListByCampaign(ctx, "camp-7")
//	// [{ID: "bd-cal", Type: "Hebdomadaire", IsDefault: true}, {ID: "bd-m", Type: "Mensuel"}]
func (r *RdsBreakdownRepository) ListByCampaign(ctx context.Context, campaignID string) ([]domain.Breakdown, error) {
	rows, err := r.db.QueryContext(ctx,
		selectBreakdownColumns+` WHERE campaign_id=$1 ORDER BY is_default DESC, name, id`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query breakdowns of campaign %s: %w", campaignID, err)
	}
	defer rows.Close()

	var breakdowns []domain.Breakdown
	for rows.Next() {
		b, err := scanBreakdown(rows)
		if err != nil {
			return nil, err
		}
		breakdowns = append(breakdowns, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate breakdown rows: %w", err)
	}
	return breakdowns, nil
}

// FindByID retrieves a single breakdown.
func (r *RdsBreakdownRepository) FindByID(ctx context.Context, id string) (*domain.Breakdown, error) {
	row := r.db.QueryRowContext(ctx, selectBreakdownColumns+` WHERE id=$1`, id)

	b, err := scanBreakdown(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// ReplaceForCampaign upserts breakdowns and deletes the campaign's other rows,
// all in one transaction. Every breakdown is validated before anything is
// written.
func (r *RdsBreakdownRepository) ReplaceForCampaign(ctx context.Context, campaignID string, breakdowns []domain.Breakdown) error {
	for i := range breakdowns {
		if err := breakdowns[i].Validate(); err != nil {
			return fmt.Errorf("breakdown validation failed: %w", err)
		}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO breakdowns (
			id, campaign_id, name, type, start_date, end_date, is_default, custom_periods,
			audit_created_by, audit_created_at, audit_updated_by, audit_updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO UPDATE SET
			name=EXCLUDED.name,
			type=EXCLUDED.type,
			start_date=EXCLUDED.start_date,
			end_date=EXCLUDED.end_date,
			is_default=EXCLUDED.is_default,
			custom_periods=EXCLUDED.custom_periods,
			audit_updated_by=EXCLUDED.audit_updated_by,
			audit_updated_at=EXCLUDED.audit_updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	ids := make([]string, 0, len(breakdowns))
	for _, b := range breakdowns {
		args, err := breakdownArgs(campaignID, b)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert breakdown %s: %w", b.ID, err)
		}
		ids = append(ids, b.ID)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM breakdowns WHERE campaign_id=$1 AND NOT (id = ANY($2))`,
		campaignID, pq.Array(ids),
	); err != nil {
		return fmt.Errorf("failed to delete removed breakdowns of campaign %s: %w", campaignID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBreakdown(row rowScanner) (*domain.Breakdown, error) {
	var (
		b          domain.Breakdown
		kind       string
		start, end sql.NullTime
		custom     []byte
		info       audit.AuditInfo
		updatedBy  sql.NullString
		updatedAt  pq.NullTime
	)
	if err := row.Scan(
		&b.ID, &b.Name, &kind, &start, &end, &b.IsDefault, &custom,
		&info.CreatedBy, &info.CreatedAt, &updatedBy, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
	}

	b.Type = domain.BreakdownType(kind)
	b.StartDate = isoOrEmpty(start)
	b.EndDate = isoOrEmpty(end)
	info.UpdatedBy = updatedBy.String
	if updatedAt.Valid {
		info.UpdatedAt = updatedAt.Time
	}
	b.AuditInfo = &info

	periods, err := decodeCustomPeriods(custom)
	if err != nil {
		return nil, fmt.Errorf("breakdown %s: %w", b.ID, err)
	}
	b.CustomPeriods = periods
	return &b, nil
}

// breakdownArgs maps b onto the insert statement placeholders, in order.
func breakdownArgs(campaignID string, b domain.Breakdown) ([]any, error) {
	custom, err := encodeCustomPeriods(b.CustomPeriods)
	if err != nil {
		return nil, fmt.Errorf("breakdown %s: %w", b.ID, err)
	}

	info := b.AuditInfo
	if info == nil {
		info = audit.NewAuditInfo("")
	}

	return []any{
		b.ID,
		campaignID,
		b.Name,
		string(b.Type),
		nullDate(b.StartDate),
		nullDate(b.EndDate),
		b.IsDefault,
		custom,
		info.CreatedBy,
		info.CreatedAt,
		sql.NullString{String: info.UpdatedBy, Valid: info.UpdatedBy != ""},
		pq.NullTime{Time: info.UpdatedAt, Valid: !info.UpdatedAt.IsZero()},
	}, nil
}

func nullDate(s string) sql.NullTime {
	d, ok := domain.ParseDate(s)
	return sql.NullTime{Time: d, Valid: ok}
}

func isoOrEmpty(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return domain.FormatISODate(t.Time)
}

func encodeCustomPeriods(periods []domain.CustomPeriod) ([]byte, error) {
	if periods == nil {
		periods = []domain.CustomPeriod{}
	}
	raw, err := json.Marshal(periods)
	if err != nil {
		return nil, fmt.Errorf("failed to encode custom periods: %w", err)
	}
	return raw, nil
}

func decodeCustomPeriods(raw []byte) ([]domain.CustomPeriod, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var periods []domain.CustomPeriod
	if err := json.Unmarshal(raw, &periods); err != nil {
		return nil, fmt.Errorf("failed to decode custom periods: %w", err)
	}
	if len(periods) == 0 {
		return nil, nil
	}
	return periods, nil
}
