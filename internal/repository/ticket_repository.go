package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/routing-engine/internal/domain"
)

// TicketRepository reads tickets and thread comments from the external
// storage collaborator and applies rebalancer reassignments.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.TicketRecord, error)
	FetchOpenTickets(ctx context.Context) ([]domain.TicketRecord, error)
	FetchOpenTicketsByAgent(ctx context.Context, agentID string) ([]domain.TicketRecord, error)
	ReassignTicket(ctx context.Context, ticketID, fromAgentID, toAgentID string) error
	FetchCommentsBefore(ctx context.Context, ticketID string, before time.Time) ([]domain.CommentRecord, error)
}

const ticketColumns = `
        id, customer_id, assignee_id, category_id, subcategory_id, title, description,
        status, priority, satisfaction_score, created_at, resolved_at, closed_at`

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.TicketRecord, error) {
	const query = `SELECT` + ticketColumns + ` FROM tickets WHERE id=$1`

	var ticket domain.TicketRecord
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) FetchOpenTickets(ctx context.Context) ([]domain.TicketRecord, error) {
	const query = `SELECT` + ticketColumns + `
        FROM tickets
        WHERE status IN ('OPEN','PENDING','IN_PROGRESS')
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *ticketRepository) FetchOpenTicketsByAgent(ctx context.Context, agentID string) ([]domain.TicketRecord, error) {
	const query = `SELECT` + ticketColumns + `
        FROM tickets
        WHERE assignee_id=$1 AND status IN ('OPEN','PENDING')
        ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *ticketRepository) ReassignTicket(ctx context.Context, ticketID, fromAgentID, toAgentID string) error {
	const query = `
        UPDATE tickets
        SET assignee_id=$1, updated_at=NOW()
        WHERE id=$2 AND assignee_id=$3 AND status IN ('OPEN','PENDING')`

	cmd, err := r.pool.Exec(ctx, query, toAgentID, ticketID, fromAgentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FetchCommentsBefore returns agent-authored comments strictly before the
// given timestamp, excluding any authored by the ticket's creator.
func (r *ticketRepository) FetchCommentsBefore(ctx context.Context, ticketID string, before time.Time) ([]domain.CommentRecord, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.author_id, c.created_at
        FROM ticket_comments c
        JOIN tickets t ON t.id = c.ticket_id
        JOIN agents a ON a.id = c.author_id
        WHERE c.ticket_id=$1 AND c.created_at < $2 AND c.author_id <> t.customer_id
        ORDER BY c.created_at ASC`

	rows, err := r.pool.Query(ctx, query, ticketID, before)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CommentRecord
	for rows.Next() {
		var comment domain.CommentRecord
		if err := rows.Scan(&comment.ID, &comment.TicketID, &comment.AuthorID, &comment.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row, ticket *domain.TicketRecord) error {
	return row.Scan(
		&ticket.ID,
		&ticket.CustomerID,
		&ticket.AssigneeID,
		&ticket.CategoryID,
		&ticket.SubcategoryID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.SatisfactionScore,
		&ticket.CreatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
	)
}

func collectTickets(rows pgx.Rows) ([]domain.TicketRecord, error) {
	var result []domain.TicketRecord
	for rows.Next() {
		var ticket domain.TicketRecord
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
