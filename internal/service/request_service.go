package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/fluxo-portal/internal/domain"
	"github.com/spec-kit/fluxo-portal/internal/events"
	"github.com/spec-kit/fluxo-portal/internal/repository"
	apperrors "github.com/spec-kit/fluxo-portal/pkg/util/errorutil"
)

const (
	msgAdminCannotCreate = "Administradores gerenciam pedidos existentes e não podem criar novos."
	msgClientCannotEdit  = "Apenas administradores podem actualizar o estado das solicitações."
	msgInvalidStatus     = "Selecione um estado válido para a solicitação."
	msgRequestNotFound   = "Solicitação não encontrada."
)

// ContactInput carries the public contact form.
type ContactInput struct {
	Name            string `field:"contactName" validate:"required" msg:"Informe o seu nome"`
	Email           string `field:"contactEmail" validate:"required,email" msg:"E-mail inválido"`
	Phone           string `field:"phone"`
	ServiceInterest string `field:"serviceInterest" validate:"required" msg:"Selecione um tema de interesse"`
	Details         string `field:"details" validate:"min=10" msg:"Descreva a sua necessidade com pelo menos 10 caracteres"`
}

// ClientRequestInput carries a signed-in client's service request. Contact
// name and email come from the session identity.
type ClientRequestInput struct {
	Phone           string `field:"phone"`
	ServiceInterest string `field:"serviceInterest" validate:"required" msg:"Informe o tipo de projecto desejado"`
	Details         string `field:"details" validate:"min=10" msg:"Descreva a sua ideia com pelo menos 10 caracteres"`
}

// Dashboard is the role-scoped request listing with its totals.
type Dashboard struct {
	Requests []domain.Request
	Totals   domain.RequestTotals
}

// RequestService coordinates the request lifecycle.
type RequestService struct {
	requests   repository.RequestRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	validator  *inputValidator
}

// RequestDependencies bundles requirements for the request service.
type RequestDependencies struct {
	RequestRepo repository.RequestRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewRequestService constructs the service.
func NewRequestService(deps RequestDependencies) *RequestService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		requests:   deps.RequestRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		validator:  newInputValidator(),
	}
}

// SubmitContact stores an anonymous contact request.
func (s *RequestService) SubmitContact(ctx context.Context, input ContactInput) (*domain.Request, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	input.ServiceInterest = strings.TrimSpace(input.ServiceInterest)
	input.Details = strings.TrimSpace(input.Details)
	if err := s.validator.check(input); err != nil {
		return nil, err
	}

	request := &domain.Request{
		ContactName:     input.Name,
		ContactEmail:    input.Email,
		Phone:           optional(input.Phone),
		ServiceInterest: input.ServiceInterest,
		Details:         input.Details,
		Status:          domain.StatusNew,
		IsContact:       true,
	}
	if err := s.create(ctx, request, events.Actor{}); err != nil {
		return nil, err
	}
	return request, nil
}

// SubmitClientRequest stores a request owned by the signed-in client.
// Administrators are refused before any validation or write.
func (s *RequestService) SubmitClientRequest(ctx context.Context, identity domain.Identity, input ClientRequestInput) (*domain.Request, error) {
	switch identity.Role {
	case domain.RoleAdmin:
		return nil, apperrors.NewRoleError(msgAdminCannotCreate)
	case domain.RoleClient:
	default:
		return nil, fmt.Errorf("submit request: unsupported role %s", identity.Role)
	}

	input.ServiceInterest = strings.TrimSpace(input.ServiceInterest)
	input.Details = strings.TrimSpace(input.Details)
	if err := s.validator.check(input); err != nil {
		return nil, err
	}

	ownerID := identity.ID
	request := &domain.Request{
		OwnerID:         &ownerID,
		ContactName:     identity.Name,
		ContactEmail:    identity.Email,
		Phone:           optional(input.Phone),
		ServiceInterest: input.ServiceInterest,
		Details:         input.Details,
		Status:          domain.StatusNew,
		IsContact:       false,
	}
	if err := s.create(ctx, request, actorOf(identity)); err != nil {
		return nil, err
	}
	return request, nil
}

// LoadDashboard lists every request for administrators, annotated with the
// owner, and only the caller's own requests for clients.
func (s *RequestService) LoadDashboard(ctx context.Context, identity domain.Identity) (*Dashboard, error) {
	var filter repository.RequestFilter
	switch identity.Role {
	case domain.RoleAdmin:
		filter.WithOwner = true
	case domain.RoleClient:
		ownerID := identity.ID
		filter.OwnerID = &ownerID
	default:
		return nil, fmt.Errorf("load dashboard: unsupported role %s", identity.Role)
	}

	requests, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Dashboard{Requests: requests, Totals: domain.TallyRequests(requests)}, nil
}

// UpdateStatus moves a request to the status labelled newStatus. Only
// administrators may do so; nothing but status and updated_at changes.
func (s *RequestService) UpdateStatus(ctx context.Context, identity domain.Identity, requestID, newStatus string) (domain.RequestStatus, error) {
	switch identity.Role {
	case domain.RoleAdmin:
	case domain.RoleClient:
		return domain.StatusUnknown, apperrors.NewRoleError(msgClientCannotEdit)
	default:
		return domain.StatusUnknown, fmt.Errorf("update status: unsupported role %s", identity.Role)
	}

	status, err := domain.ParseStatus(strings.TrimSpace(newStatus))
	if err != nil {
		return domain.StatusUnknown, apperrors.NewValidationError(msgInvalidStatus,
			apperrors.FieldViolation{Field: "status", Message: msgInvalidStatus})
	}

	notFound := apperrors.NewDomainError(apperrors.CodeNotFound, msgRequestNotFound,
		http.StatusNotFound, map[string]any{"id": requestID})
	if _, err := uuid.Parse(requestID); err != nil {
		return domain.StatusUnknown, notFound
	}
	current, err := s.requests.GetByID(ctx, requestID)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StatusUnknown, notFound
	}
	if err != nil {
		return domain.StatusUnknown, err
	}

	if err := s.requests.UpdateStatus(ctx, requestID, status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StatusUnknown, notFound
		}
		return domain.StatusUnknown, err
	}

	s.logger.Info("request status updated",
		zap.String("request_id", requestID),
		zap.String("admin_id", identity.ID),
		zap.Stringer("old_status", current.Status),
		zap.Stringer("new_status", status))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRequestStatusChanged,
		SubjectID: requestID,
		Actor:     actorOf(identity),
		Timestamp: time.Now().UTC(),
		Payload: events.RequestStatusChangedPayload{
			OldStatus: current.Status.Label(),
			NewStatus: status.Label(),
		},
	})
	return status, nil
}

func (s *RequestService) create(ctx context.Context, request *domain.Request, actor events.Actor) error {
	if err := s.requests.Create(ctx, request); err != nil {
		return err
	}
	s.logger.Info("request created",
		zap.String("request_id", request.ID),
		zap.Bool("is_contact", request.IsContact))
	publish(ctx, s.dispatcher, s.logger, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventRequestCreated,
		SubjectID: request.ID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload: events.RequestCreatedPayload{
			ContactName:     request.ContactName,
			ContactEmail:    request.ContactEmail,
			ServiceInterest: request.ServiceInterest,
			IsContact:       request.IsContact,
		},
	})
	return nil
}

func actorOf(identity domain.Identity) events.Actor {
	id, role := identity.ID, identity.Role
	return events.Actor{UserID: &id, Role: &role}
}
