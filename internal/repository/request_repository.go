package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/fluxo-portal/internal/domain"
)

// RequestFilter scopes a request listing.
type RequestFilter struct {
	// OwnerID restricts the listing to one client's requests. Nil lists everything.
	OwnerID *string
	// WithOwner joins the owning user's name and email.
	WithOwner bool
}

// RequestRepository encapsulates request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	// UpdateStatus changes status and updated_at only. Returns pgx.ErrNoRows
	// when id does not exist.
	UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error
	// List returns requests newest first.
	List(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
}

type requestRepository struct {
	db DBTX
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(db DBTX) RequestRepository {
	return &requestRepository{db: db}
}

const requestColumns = `r.id, r.client_id, r.contact_name, r.contact_email, r.phone, r.service_interest,
               r.details, r.status, r.is_contact, r.created_at, r.updated_at`

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (client_id, contact_name, contact_email, phone, service_interest, details, status, is_contact)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		request.OwnerID,
		request.ContactName,
		request.ContactEmail,
		request.Phone,
		request.ServiceInterest,
		request.Details,
		request.Status.Label(),
		request.IsContact,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests r WHERE r.id=$1`
	request, err := scanRequest(r.db.QueryRow(ctx, query, id), false)
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	const query = `UPDATE requests SET status=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.db.Exec(ctx, query, status.Label(), id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	var b strings.Builder
	b.WriteString(`SELECT `)
	b.WriteString(requestColumns)
	if filter.WithOwner {
		b.WriteString(`, u.name, u.email FROM requests r LEFT JOIN users u ON u.id = r.client_id`)
	} else {
		b.WriteString(` FROM requests r`)
	}

	args := []any{}
	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		fmt.Fprintf(&b, ` WHERE r.client_id=$%d`, len(args))
	}
	b.WriteString(` ORDER BY r.created_at DESC, r.id DESC`)

	rows, err := r.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Request{}
	for rows.Next() {
		request, err := scanRequest(rows, filter.WithOwner)
		if err != nil {
			return nil, err
		}
		result = append(result, *request)
	}
	return result, rows.Err()
}

func scanRequest(row pgx.Row, withOwner bool) (*domain.Request, error) {
	var (
		request    domain.Request
		status     string
		ownerName  *string
		ownerEmail *string
	)
	dest := []any{
		&request.ID,
		&request.OwnerID,
		&request.ContactName,
		&request.ContactEmail,
		&request.Phone,
		&request.ServiceInterest,
		&request.Details,
		&status,
		&request.IsContact,
		&request.CreatedAt,
		&request.UpdatedAt,
	}
	if withOwner {
		dest = append(dest, &ownerName, &ownerEmail)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	// Unrecognised labels stay StatusUnknown; totals tolerate them.
	request.Status, _ = domain.ParseStatus(status)
	if ownerName != nil && ownerEmail != nil {
		request.Owner = &domain.RequestOwner{Name: *ownerName, Email: *ownerEmail}
	}
	return &request, nil
}
