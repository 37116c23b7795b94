package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contacts-backend/internal/domain"
	"github.com/tbourn/go-contacts-backend/internal/services"
	"github.com/tbourn/go-contacts-backend/internal/utils"
	"github.com/tbourn/go-contacts-backend/internal/validation"
)

// ContactService is the use-case layer behind the contact endpoints.
type ContactService interface {
	List(ctx context.Context) ([]domain.Contact, error)
	Get(ctx context.Context, id int64) (*domain.Contact, error)
	Create(ctx context.Context, p validation.Payload) (*domain.Contact, error)
	Update(ctx context.Context, id int64, p validation.Payload) (*domain.Contact, error)
	Delete(ctx context.Context, id int64) error
	// Stats returns the row count and latest updated_at, for list ETags.
	Stats(ctx context.Context) (int64, *time.Time, error)
}

// Handlers serves the contact API.
type Handlers struct {
	svc ContactService
}

// New returns Handlers backed by svc.
func New(svc ContactService) *Handlers {
	return &Handlers{svc: svc}
}

// ContactRequest documents the create/update body. Every field is optional
// on update; on create all three are required.
type ContactRequest struct {
	Name  string `json:"name" example:"Ada Lovelace"`
	Email string `json:"email" example:"ada@example.com"`
	Phone string `json:"phone" example:"+44 20 7946 0958"`
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contacts
// @Description Returns every contact, newest first. Supports a weak ETag via If-None-Match.
// @Tags        Contacts
// @Produce     json
// @Param       If-None-Match  header  string  false  "Return 304 if ETag matches"
// @Success     200  {array}   domain.Contact
// @Header      200  {string}  ETag  "Weak ETag for the current list"
// @Success     304  {string}  string  "Not Modified"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      / [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	ctx := c.Request.Context()

	// best effort: a stats failure just skips the ETag
	if count, maxTS, err := h.svc.Stats(ctx); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"contacts:%d:%d"`, count, ts)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.svc.List(ctx)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	ok(c, http.StatusOK, items)
}

// GetContact godoc
// @ID          getContact
// @Summary     Get a contact
// @Tags        Contacts
// @Produce     json
// @Param       id   path      int  true  "Contact ID"
// @Success     200  {object}  domain.Contact
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid contact id"
// @Failure     404  {object}  handlers.ErrorResponse  "Contact not found"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /{id} [get]
func (h *Handlers) GetContact(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	ct, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	ok(c, http.StatusOK, ct)
}

// CreateContact godoc
// @ID          createContact
// @Summary     Create a contact
// @Description Name, email and phone are required; the phone must hold 10 to 15 digits.
// @Tags        Contacts
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.ContactRequest  true  "Contact"
// @Success     201   {object}  domain.Contact
// @Failure     400   {object}  handlers.ValidationErrorResponse
// @Failure     409   {object}  handlers.ErrorResponse  "Email already exists"
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      / [post]
func (h *Handlers) CreateContact(c *gin.Context) {
	p, okBody := bindPayload(c)
	if !okBody {
		return
	}
	ct, err := h.svc.Create(c.Request.Context(), p)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	ok(c, http.StatusCreated, ct)
}

// UpdateContact godoc
// @ID          updateContact
// @Summary     Update a contact
// @Description Partial update: omitted fields keep their stored value, and the merged result must be valid.
// @Tags        Contacts
// @Accept      json
// @Produce     json
// @Param       id    path      int                      true  "Contact ID"
// @Param       body  body      handlers.ContactRequest  true  "Fields to change"
// @Success     200   {object}  domain.Contact
// @Failure     400   {object}  handlers.ValidationErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Contact not found"
// @Failure     409   {object}  handlers.ErrorResponse  "Email already exists"
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /{id} [put]
func (h *Handlers) UpdateContact(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	p, okBody := bindPayload(c)
	if !okBody {
		return
	}
	ct, err := h.svc.Update(c.Request.Context(), id, p)
	if err != nil {
		h.writeErr(c, err)
		return
	}
	ok(c, http.StatusOK, ct)
}

// DeleteContact godoc
// @ID          deleteContact
// @Summary     Delete a contact
// @Tags        Contacts
// @Param       id   path  int  true  "Contact ID"
// @Success     204  "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid contact id"
// @Failure     404  {object}  handlers.ErrorResponse  "Contact not found"
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /{id} [delete]
func (h *Handlers) DeleteContact(c *gin.Context) {
	id, okID := pathID(c)
	if !okID {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.writeErr(c, err)
		return
	}
	noContent(c)
}

// pathID parses the :id parameter, writing a 400 when it is not an integer.
func pathID(c *gin.Context) (int64, bool) {
	id, parsed := utils.ParseID(c.Param("id"))
	if !parsed {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidID)
	}
	return id, parsed
}

// bindPayload decodes the JSON body. An empty body is an empty object.
func bindPayload(c *gin.Context) (validation.Payload, bool) {
	var p validation.Payload
	err := c.ShouldBindJSON(&p)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return p, true
	case errors.As(err, &tooLarge):
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, MsgBodyTooLarge)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgInvalidJSON)
	}
	return p, false
}

func (h *Handlers) writeErr(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		failValidation(c, verr.Errors)
	case errors.Is(err, services.ErrContactNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, MsgNotFound)
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, MsgEmailExists)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
