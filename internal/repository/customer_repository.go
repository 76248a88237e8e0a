package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// CustomerRepository reads customer records and per-customer ticket history.
type CustomerRepository interface {
	FetchCustomer(ctx context.Context, customerID string) (*domain.CustomerRecord, error)
	FetchCustomerTicketHistory(ctx context.Context, customerID string) ([]domain.TicketRecord, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository instantiates the repository.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) FetchCustomer(ctx context.Context, customerID string) (*domain.CustomerRecord, error) {
	const query = `
        SELECT id, tier, language_preference
        FROM customers WHERE id=$1`

	var customer domain.CustomerRecord
	if err := r.pool.QueryRow(ctx, query, customerID).Scan(
		&customer.ID,
		&customer.Tier,
		&customer.LanguagePreference,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) FetchCustomerTicketHistory(ctx context.Context, customerID string) ([]domain.TicketRecord, error) {
	const query = `SELECT` + ticketColumns + `
        FROM tickets
        WHERE customer_id=$1
        ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}
