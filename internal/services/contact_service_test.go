package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-contacts-backend/internal/domain"
	"github.com/tbourn/go-contacts-backend/internal/repo"
	"github.com/tbourn/go-contacts-backend/internal/validation"
)

// ----- real repo shim over an in-memory database -----

type realRepo struct {
	// skipEmailCheck makes GetContactByEmail miss, simulating a concurrent
	// writer that inserted the email after the service checked it.
	skipEmailCheck bool
	// vanishOnUpdate deletes the row right before UpdateContact runs.
	vanishOnUpdate bool
}

func (r realRepo) ListContacts(ctx context.Context, db *gorm.DB) ([]domain.Contact, error) {
	return repo.ListContacts(ctx, db)
}

func (r realRepo) GetContact(ctx context.Context, db *gorm.DB, id int64) (*domain.Contact, error) {
	return repo.GetContact(ctx, db, id)
}

func (r realRepo) GetContactByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Contact, error) {
	if r.skipEmailCheck {
		return nil, repo.ErrNotFound
	}
	return repo.GetContactByEmail(ctx, db, email)
}

func (r realRepo) CreateContact(ctx context.Context, db *gorm.DB, name, email string, phone *string) (*domain.Contact, error) {
	return repo.CreateContact(ctx, db, name, email, phone)
}

func (r realRepo) UpdateContact(ctx context.Context, db *gorm.DB, id int64, patch domain.ContactPatch) (*domain.Contact, error) {
	if r.vanishOnUpdate {
		if _, err := repo.DeleteContact(ctx, db, id); err != nil {
			return nil, err
		}
	}
	return repo.UpdateContact(ctx, db, id, patch)
}

func (r realRepo) DeleteContact(ctx context.Context, db *gorm.DB, id int64) (bool, error) {
	return repo.DeleteContact(ctx, db, id)
}

func (r realRepo) ContactsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.ContactsStats(ctx, db)
}

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.ApplySchema(db); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return db
}

func payload(name, email, phone string) validation.Payload {
	return validation.Payload{
		Name:  validation.String(name),
		Email: validation.String(email),
		Phone: validation.String(phone),
	}
}

func mustCreate(t *testing.T, s *ContactService, name, email, phone string) *domain.Contact {
	t.Helper()
	c, err := s.Create(context.Background(), payload(name, email, phone))
	if err != nil {
		t.Fatalf("create %s: %v", email, err)
	}
	return c
}

// ----- Create -----

func TestCreate_TrimsAndStores(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})

	c, err := s.Create(context.Background(), payload("  Ann  ", "a@b.com", " 5551234567 "))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == 0 || c.Name != "Ann" || c.Email != "a@b.com" || c.Phone == nil || *c.Phone != "5551234567" {
		t.Fatalf("unexpected contact: %+v", c)
	}
}

func TestCreate_NumericPhone(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	p := payload("A", "a@b.com", "")
	p.Phone = validation.Field{Value: 5551234567.0, Present: true}

	c, err := s.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Phone == nil || *c.Phone != "5551234567" {
		t.Fatalf("phone = %v", c.Phone)
	}
}

func TestCreate_ValidationError(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})

	_, err := s.Create(context.Background(), validation.Payload{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := []string{validation.MsgNameRequired, validation.MsgEmailRequired, validation.MsgPhoneRequired}
	if !reflect.DeepEqual(verr.Errors, want) {
		t.Fatalf("errors = %q; want %q", verr.Errors, want)
	}
}

func TestCreate_DuplicateEmail_PreCheck(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	mustCreate(t, s, "A", "a@b.com", "5551234567")

	if _, err := s.Create(context.Background(), payload("B", "a@b.com", "5557654321")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestCreate_DuplicateEmail_RaceHitsConstraint(t *testing.T) {
	db := newServiceDB(t)
	seed := NewContactService(db, realRepo{})
	mustCreate(t, seed, "A", "a@b.com", "5551234567")

	racy := NewContactService(db, realRepo{skipEmailCheck: true})
	if _, err := racy.Create(context.Background(), payload("B", "a@b.com", "5557654321")); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("constraint violation must map to ErrEmailTaken, got %v", err)
	}
}

// ----- Get / List / Delete -----

func TestGet_NotFound(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	if _, err := s.Get(context.Background(), 999); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestList_NewestFirst(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	a := mustCreate(t, s, "A", "a@b.com", "5551234567")
	b := mustCreate(t, s, "B", "b@b.com", "5551234567")

	out, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 || out[0].ID != b.ID || out[1].ID != a.ID {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestDelete_TwiceReturnsNotFound(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	c := mustCreate(t, s, "A", "a@b.com", "5551234567")

	if err := s.Delete(context.Background(), c.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := s.Delete(context.Background(), c.ID); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("second delete: expected ErrContactNotFound, got %v", err)
	}
}

// ----- Update -----

func TestUpdate_PartialKeepsOtherFields(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	c := mustCreate(t, s, "A", "a@b.com", "5551234567")

	up, err := s.Update(context.Background(), c.ID, validation.Payload{Name: validation.String(" Alice ")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.Name != "Alice" || up.Email != "a@b.com" || *up.Phone != "5551234567" {
		t.Fatalf("unexpected contact: %+v", up)
	}
	if up.UpdatedAt.Before(c.UpdatedAt) {
		t.Fatalf("updated_at went backwards: %v < %v", up.UpdatedAt, c.UpdatedAt)
	}
}

func TestUpdate_InvalidPhone(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	c := mustCreate(t, s, "A", "a@b.com", "5551234567")

	_, err := s.Update(context.Background(), c.ID, validation.Payload{Phone: validation.String("123")})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if !reflect.DeepEqual(verr.Errors, []string{validation.MsgPhoneDigits}) {
		t.Fatalf("errors = %q", verr.Errors)
	}
}

func TestUpdate_ExplicitNullFailsValidation(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	c := mustCreate(t, s, "A", "a@b.com", "5551234567")

	_, err := s.Update(context.Background(), c.ID, validation.Payload{Name: validation.Field{Present: true}})
	var verr *ValidationError
	if !errors.As(err, &verr) || !reflect.DeepEqual(verr.Errors, []string{validation.MsgNameRequired}) {
		t.Fatalf("expected name-required validation error, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	if _, err := s.Update(context.Background(), 7, validation.Payload{}); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestUpdate_RowVanishesBeforeWrite(t *testing.T) {
	db := newServiceDB(t)
	c := mustCreate(t, NewContactService(db, realRepo{}), "A", "a@b.com", "5551234567")

	s := NewContactService(db, realRepo{vanishOnUpdate: true})
	if _, err := s.Update(context.Background(), c.ID, validation.Payload{Name: validation.String("B")}); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("expected ErrContactNotFound, got %v", err)
	}
}

func TestUpdate_EmailConflict(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	mustCreate(t, s, "A", "a@b.com", "5551234567")
	b := mustCreate(t, s, "B", "b@b.com", "5551234567")

	if _, err := s.Update(context.Background(), b.ID, validation.Payload{Email: validation.String("a@b.com")}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdate_EmailConflict_RaceHitsConstraint(t *testing.T) {
	db := newServiceDB(t)
	seed := NewContactService(db, realRepo{})
	mustCreate(t, seed, "A", "a@b.com", "5551234567")
	b := mustCreate(t, seed, "B", "b@b.com", "5551234567")

	racy := NewContactService(db, realRepo{skipEmailCheck: true})
	if _, err := racy.Update(context.Background(), b.ID, validation.Payload{Email: validation.String("a@b.com")}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdate_SameEmailIsNotAConflict(t *testing.T) {
	s := NewContactService(newServiceDB(t), realRepo{})
	c := mustCreate(t, s, "A", "a@b.com", "5551234567")

	up, err := s.Update(context.Background(), c.ID, payload("A2", "a@b.com", "5557654321"))
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if up.Name != "A2" || *up.Phone != "5557654321" {
		t.Fatalf("unexpected contact: %+v", up)
	}
}

// ----- fake repo for error propagation -----

type failingRepo struct {
	realRepo
	err error
}

func (r failingRepo) GetContactByEmail(context.Context, *gorm.DB, string) (*domain.Contact, error) {
	return nil, r.err
}

func (r failingRepo) ListContacts(context.Context, *gorm.DB) ([]domain.Contact, error) {
	return nil, r.err
}

func TestCreate_PropagatesLookupError(t *testing.T) {
	boom := errors.New("disk I/O error")
	s := NewContactService(newServiceDB(t), failingRepo{err: boom})

	if _, err := s.Create(context.Background(), payload("A", "a@b.com", "5551234567")); !errors.Is(err, boom) {
		t.Fatalf("expected raw error, got %v", err)
	}
	if _, err := s.List(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected raw error from List, got %v", err)
	}
}

func TestOutcome(t *testing.T) {
	cases := map[string]error{
		"ok":        nil,
		"invalid":   &ValidationError{Errors: []string{"x"}},
		"not_found": ErrContactNotFound,
		"conflict":  fmt.Errorf("wrap: %w", ErrEmailTaken),
		"error":     errors.New("boom"),
	}
	for want, err := range cases {
		if got := outcome(err); got != want {
			t.Fatalf("outcome(%v) = %q; want %q", err, got, want)
		}
	}
}

func TestOperationsRecordSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	s := NewContactService(newServiceDB(t), realRepo{})
	c := mustCreate(t, s, "Ann", "ann@x.io", "5551234567")
	if _, err := s.Get(context.Background(), c.ID+100); !errors.Is(err, ErrContactNotFound) {
		t.Fatalf("get: %v", err)
	}

	spans := rec.Ended()
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(spans))
	}
	get := spans[1]
	if get.Name() != "Get" {
		t.Fatalf("second span = %q", get.Name())
	}
	var outcomeAttr string
	for _, kv := range get.Attributes() {
		if kv.Key == "contact.outcome" {
			outcomeAttr = kv.Value.AsString()
		}
	}
	if outcomeAttr != "not_found" {
		t.Fatalf("contact.outcome = %q", outcomeAttr)
	}
	if get.Status().Code == codes.Error {
		t.Fatalf("not found must not mark the span as failed")
	}
}

func TestUpdate_StoredNullPhoneSurvivesOmission(t *testing.T) {
	db := newServiceDB(t)
	s := NewContactService(db, realRepo{})
	c, err := repo.CreateContact(context.Background(), db, "A", "a@b.com", nil)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := s.Update(context.Background(), c.ID, validation.Payload{Name: validation.String("B")})
	if err != nil {
		t.Fatalf("update omitting phone: %v", err)
	}
	if got.Name != "B" || got.Phone != nil {
		t.Fatalf("updated = %+v", got)
	}

	_, err = s.Update(context.Background(), c.ID, validation.Payload{Phone: validation.Field{Present: true}})
	var verr *ValidationError
	if !errors.As(err, &verr) || !reflect.DeepEqual(verr.Errors, []string{validation.MsgPhoneRequired}) {
		t.Fatalf("explicit null phone: %v", err)
	}
}
