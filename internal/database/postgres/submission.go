// Package postgres archives accepted contact submissions. The archive is a
// best-effort audit trail; the pipeline proceeds even when it is down.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/webfolio/webfolio-api/internal/models"
	"github.com/webfolio/webfolio-api/pkg/metrics"
)

// SubmissionRepository persists accepted submissions.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a repository backed by the given pool.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// CreateSubmission inserts a new submission record and returns its id.
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, rec *models.SubmissionRecord) (int, error) {
	start := time.Now()
	operation := "createSubmission"

	if rec.Reference == uuid.Nil {
		rec.Reference = uuid.New()
	}

	var id int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO contact_submissions
		   (reference, first_name, last_name, email, message, client_ip, delivery_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		rec.Reference, rec.FirstName, rec.LastName, rec.Email, rec.Message, rec.ClientIP, rec.DeliveryID,
	).Scan(&id)

	duration := metrics.MeasureDuration(start)
	if err != nil {
		recordMetrics(operation, "error", duration)
		return 0, fmt.Errorf("failed to insert submission: %w", err)
	}

	recordMetrics(operation, "success", duration)
	return id, nil
}

// ListRecent returns the most recent submissions, newest first.
func (r *SubmissionRepository) ListRecent(ctx context.Context, limit int) ([]*models.SubmissionRecord, error) {
	start := time.Now()
	operation := "listRecentSubmissions"

	rows, err := r.pool.Query(ctx,
		`SELECT id, reference, first_name, last_name, email, message, client_ip, delivery_id, created_at
		   FROM contact_submissions
		  ORDER BY created_at DESC
		  LIMIT $1`,
		limit,
	)
	if err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	var records []*models.SubmissionRecord
	for rows.Next() {
		rec := &models.SubmissionRecord{}
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.FirstName, &rec.LastName, &rec.Email,
			&rec.Message, &rec.ClientIP, &rec.DeliveryID, &rec.CreatedAt); err != nil {
			recordMetrics(operation, "error", metrics.MeasureDuration(start))
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		recordMetrics(operation, "error", metrics.MeasureDuration(start))
		return nil, fmt.Errorf("failed to read submissions: %w", err)
	}

	recordMetrics(operation, "success", metrics.MeasureDuration(start))
	return records, nil
}

func recordMetrics(operation, status string, duration float64) {
	metrics.StoreOperationDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.StoreOperationTotal.WithLabelValues(operation, status).Inc()
}
