// Package services – ContactService
//
// This file implements the ContactService, which orchestrates the contact
// use-cases: payload validation, the email uniqueness check, and the
// repository calls. Service-level errors (ErrContactNotFound, ErrEmailTaken,
// *ValidationError) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
//
// Uniqueness is checked before every write that sets an email, but the check
// is best effort: two requests can pass it concurrently. The unique index in
// the store is the last line of defense, and its violation is reported as
// ErrEmailTaken exactly like the pre-emptive check.
package services

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-contacts-backend/internal/domain"
	"github.com/tbourn/go-contacts-backend/internal/observability"
	"github.com/tbourn/go-contacts-backend/internal/repo"
	"github.com/tbourn/go-contacts-backend/internal/validation"
)

// ContactRepo defines the repository contract required by ContactService.
type ContactRepo interface {
	// ListContacts returns every contact, newest first.
	ListContacts(ctx context.Context, db *gorm.DB) ([]domain.Contact, error)

	// GetContact fetches a contact by id.
	GetContact(ctx context.Context, db *gorm.DB, id int64) (*domain.Contact, error)

	// GetContactByEmail fetches the contact holding email (exact match).
	GetContactByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Contact, error)

	// CreateContact inserts a contact and returns the stored row.
	CreateContact(ctx context.Context, db *gorm.DB, name, email string, phone *string) (*domain.Contact, error)

	// UpdateContact applies patch to contact id and returns the stored row.
	UpdateContact(ctx context.Context, db *gorm.DB, id int64, patch domain.ContactPatch) (*domain.Contact, error)

	// DeleteContact removes contact id and reports whether a row was removed.
	DeleteContact(ctx context.Context, db *gorm.DB, id int64) (bool, error)

	// ContactsStats returns the row count and latest updated_at.
	ContactsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error)
}

// ContactService provides the contact CRUD use-cases.
type ContactService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the contact repository used by this service.
	Repo ContactRepo
}

// NewContactService constructs a ContactService.
func NewContactService(db *gorm.DB, r ContactRepo) *ContactService {
	return &ContactService{DB: db, Repo: r}
}

// List returns all contacts ordered by creation time, newest first.
func (s *ContactService) List(ctx context.Context) ([]domain.Contact, error) {
	ctx, span := startSpan(ctx, "List")
	defer span.End()

	out, err := s.Repo.ListContacts(ctx, s.DB)
	record(span, "list", err)
	span.SetAttributes(attribute.Int("contacts.count", len(out)))
	return out, err
}

// Get returns contact id or ErrContactNotFound.
func (s *ContactService) Get(ctx context.Context, id int64) (*domain.Contact, error) {
	ctx, span := startSpan(ctx, "Get", attribute.Int64("contact.id", id))
	defer span.End()

	c, err := s.Repo.GetContact(ctx, s.DB, id)
	if isNotFound(err) {
		err = ErrContactNotFound
	}
	record(span, "get", err)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Stats returns the number of contacts and the latest update time, used by
// the HTTP layer to build list ETags.
func (s *ContactService) Stats(ctx context.Context) (int64, *time.Time, error) {
	return s.Repo.ContactsStats(ctx, s.DB)
}

// Create validates p, enforces email uniqueness and stores a new contact
// with trimmed fields.
func (s *ContactService) Create(ctx context.Context, p validation.Payload) (*domain.Contact, error) {
	ctx, span := startSpan(ctx, "Create")
	defer span.End()

	c, err := s.create(ctx, p)
	record(span, "create", err)
	return c, err
}

func (s *ContactService) create(ctx context.Context, p validation.Payload) (*domain.Contact, error) {
	if errs := validation.Validate(p); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	email, _ := p.Email.Value.(string)
	if taken, err := s.emailHeldByOther(ctx, email, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrEmailTaken
	}

	name, _ := p.Name.Value.(string)
	phone := trimmedText(p.Phone.Value)
	c, err := s.Repo.CreateContact(ctx, s.DB, strings.TrimSpace(name), strings.TrimSpace(email), &phone)
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return c, nil
}

// Update changes only the fields present in p.
//
// Semantics:
//   - The contact must exist; otherwise ErrContactNotFound.
//   - Validation runs on the merged view (supplied fields over stored
//     values), so omitted fields do not fail. An omitted phone over a
//     stored NULL is left NULL.
//   - When the email changes, it must not belong to another contact.
//   - A contact deleted between the existence check and the write yields
//     ErrContactNotFound; a concurrent write of the same email yields
//     ErrEmailTaken.
func (s *ContactService) Update(ctx context.Context, id int64, p validation.Payload) (*domain.Contact, error) {
	ctx, span := startSpan(ctx, "Update", attribute.Int64("contact.id", id))
	defer span.End()

	c, err := s.update(ctx, id, p)
	record(span, "update", err)
	return c, err
}

func (s *ContactService) update(ctx context.Context, id int64, p validation.Payload) (*domain.Contact, error) {
	existing, err := s.Repo.GetContact(ctx, s.DB, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	merged := validation.Payload{
		Name:  orStored(p.Name, existing.Name),
		Email: orStored(p.Email, existing.Email),
		Phone: p.Phone,
	}
	if !p.Phone.Present {
		merged.Phone = validation.Field{Present: existing.Phone != nil}
		if existing.Phone != nil {
			merged.Phone.Value = *existing.Phone
		}
	}
	errs := validation.Validate(merged)
	if !p.Phone.Present && existing.Phone == nil {
		// a stored NULL phone stays valid until the client supplies one
		errs = slices.DeleteFunc(errs, func(e string) bool { return e == validation.MsgPhoneRequired })
	}
	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	if email, ok := p.Email.Value.(string); ok && email != "" && email != existing.Email {
		if taken, err := s.emailHeldByOther(ctx, email, id); err != nil {
			return nil, err
		} else if taken {
			return nil, ErrEmailTaken
		}
	}

	var patch domain.ContactPatch
	if p.Name.Present {
		v := trimmedText(p.Name.Value)
		patch.Name = &v
	}
	if p.Email.Present {
		v := trimmedText(p.Email.Value)
		patch.Email = &v
	}
	if p.Phone.Present {
		v := trimmedText(p.Phone.Value)
		patch.Phone = &v
	}

	updated, err := s.Repo.UpdateContact(ctx, s.DB, id, patch)
	if err != nil {
		switch {
		case isNotFound(err):
			return nil, ErrContactNotFound
		case repo.IsUniqueViolation(err):
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return updated, nil
}

// Delete hard-deletes contact id; ErrContactNotFound if nothing was removed.
func (s *ContactService) Delete(ctx context.Context, id int64) error {
	ctx, span := startSpan(ctx, "Delete", attribute.Int64("contact.id", id))
	defer span.End()

	removed, err := s.Repo.DeleteContact(ctx, s.DB, id)
	if err == nil && !removed {
		err = ErrContactNotFound
	}
	record(span, "delete", err)
	return err
}

// emailHeldByOther reports whether email belongs to a contact other than
// selfID (0 matches no contact).
func (s *ContactService) emailHeldByOther(ctx context.Context, email string, selfID int64) (bool, error) {
	other, err := s.Repo.GetContactByEmail(ctx, s.DB, email)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return other.ID != selfID, nil
}

// orStored returns f when the client supplied it, else the stored value.
func orStored(f validation.Field, stored string) validation.Field {
	if f.Present {
		return f
	}
	return validation.String(stored)
}

// trimmedText returns the trimmed text form of a validated value.
func trimmedText(v any) string {
	s, _ := validation.Text(v)
	return strings.TrimSpace(s)
}

// isNotFound treats repo-level not found sentinels as "not found".
func isNotFound(err error) bool {
	return errors.Is(err, repo.ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer("services/ContactService").Start(ctx, name, trace.WithAttributes(attrs...))
}

// record counts the outcome of a contact operation and tags span with it.
// Only unexpected failures mark the span as an error.
func record(span trace.Span, op string, err error) {
	o := outcome(err)
	observability.RecordContactOp(op, o)
	span.SetAttributes(attribute.String("contact.outcome", o))
	if o == "error" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func outcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrContactNotFound):
		return "not_found"
	case errors.Is(err, ErrEmailTaken):
		return "conflict"
	default:
		return "error"
	}
}
