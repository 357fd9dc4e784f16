package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/financing-service/internal/domain"
)

// ApplicationRepository encapsulates financing application persistence.
type ApplicationRepository interface {
	Create(ctx context.Context, application *domain.Application) error
	GetByID(ctx context.Context, id int64) (*domain.Application, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Application, error)
	ListAll(ctx context.Context) ([]domain.ApplicationWithRequester, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ApplicationStatus) (*domain.Application, error)
}

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository instantiates repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

func (r *applicationRepository) Create(ctx context.Context, application *domain.Application) error {
	const query = `
        INSERT INTO financing_applications (user_id, service_name, reason, payment_plan, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		application.UserID,
		application.ServiceName,
		application.Reason,
		application.PaymentPlan,
		application.Status,
	).Scan(&application.ID, &application.CreatedAt, &application.UpdatedAt)
}

func (r *applicationRepository) GetByID(ctx context.Context, id int64) (*domain.Application, error) {
	const query = `
        SELECT id, user_id, service_name, reason, payment_plan, status, created_at, updated_at
        FROM financing_applications WHERE id=$1`

	var app domain.Application
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&app.ID,
		&app.UserID,
		&app.ServiceName,
		&app.Reason,
		&app.PaymentPlan,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Application, error) {
	const query = `
        SELECT id, user_id, service_name, reason, payment_plan, status, created_at, updated_at
        FROM financing_applications WHERE user_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := make([]domain.Application, 0)
	for rows.Next() {
		var app domain.Application
		if err := rows.Scan(
			&app.ID,
			&app.UserID,
			&app.ServiceName,
			&app.Reason,
			&app.PaymentPlan,
			&app.Status,
			&app.CreatedAt,
			&app.UpdatedAt,
		); err != nil {
			return nil, err
		}
		applications = append(applications, app)
	}
	return applications, rows.Err()
}

func (r *applicationRepository) ListAll(ctx context.Context) ([]domain.ApplicationWithRequester, error) {
	const query = `
        SELECT fa.id, fa.user_id, fa.service_name, fa.reason, fa.payment_plan, fa.status,
               fa.created_at, fa.updated_at, u.first_name, u.last_name, u.email
        FROM financing_applications fa
        JOIN users u ON fa.user_id = u.id
        ORDER BY fa.created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applications := make([]domain.ApplicationWithRequester, 0)
	for rows.Next() {
		var app domain.ApplicationWithRequester
		if err := rows.Scan(
			&app.ID,
			&app.UserID,
			&app.ServiceName,
			&app.Reason,
			&app.PaymentPlan,
			&app.Status,
			&app.CreatedAt,
			&app.UpdatedAt,
			&app.FirstName,
			&app.LastName,
			&app.Email,
		); err != nil {
			return nil, err
		}
		applications = append(applications, app)
	}
	return applications, rows.Err()
}

func (r *applicationRepository) UpdateStatus(ctx context.Context, id int64, status domain.ApplicationStatus) (*domain.Application, error) {
	const query = `
        UPDATE financing_applications
        SET status=$1, updated_at=NOW()
        WHERE id=$2
        RETURNING id, user_id, service_name, reason, payment_plan, status, created_at, updated_at`

	var app domain.Application
	if err := r.pool.QueryRow(ctx, query, status, id).Scan(
		&app.ID,
		&app.UserID,
		&app.ServiceName,
		&app.Reason,
		&app.PaymentPlan,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &app, nil
}
