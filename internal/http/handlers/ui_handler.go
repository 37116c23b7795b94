package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-contacts-backend/internal/domain"
	"github.com/tbourn/go-contacts-backend/internal/http/middleware"
	"github.com/tbourn/go-contacts-backend/internal/services"
	"github.com/tbourn/go-contacts-backend/internal/utils"
	"github.com/tbourn/go-contacts-backend/internal/validation"
	"github.com/tbourn/go-contacts-backend/internal/webui"
)

// pageAPI lets webui.Controller drive the service in-process. Failures come
// back as *webui.APIError carrying the same status and text the JSON
// endpoints would send.
type pageAPI struct {
	svc ContactService
}

var _ webui.ContactsAPI = pageAPI{}

func (a pageAPI) List(ctx context.Context) ([]domain.Contact, error) {
	items, err := a.svc.List(ctx)
	return items, apiError(err)
}

func (a pageAPI) Create(ctx context.Context, in webui.ContactInput) (*domain.Contact, error) {
	c, err := a.svc.Create(ctx, formPayload(in))
	return c, apiError(err)
}

func (a pageAPI) Update(ctx context.Context, id int64, in webui.ContactInput) (*domain.Contact, error) {
	c, err := a.svc.Update(ctx, id, formPayload(in))
	return c, apiError(err)
}

func (a pageAPI) Delete(ctx context.Context, id int64) error {
	return apiError(a.svc.Delete(ctx, id))
}

// formPayload marks every field present: the form always posts all three.
func formPayload(in webui.ContactInput) validation.Payload {
	return validation.Payload{
		Name:  validation.String(in.Name),
		Email: validation.String(in.Email),
		Phone: validation.String(in.Phone),
	}
}

func apiError(err error) error {
	if err == nil {
		return nil
	}
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return &webui.APIError{Status: http.StatusBadRequest, Errors: verr.Errors}
	case errors.Is(err, services.ErrContactNotFound):
		return &webui.APIError{Status: http.StatusNotFound, Message: MsgNotFound}
	case errors.Is(err, services.ErrEmailTaken):
		return &webui.APIError{Status: http.StatusConflict, Message: MsgEmailExists}
	default:
		return &webui.APIError{Status: http.StatusInternalServerError, Message: err.Error()}
	}
}

func (h *Handlers) controller() *webui.Controller {
	return webui.NewController(pageAPI{svc: h.svc})
}

// pageView starts a view from the q and sort values of the query string or
// the posted form, with the contact list loaded.
func (h *Handlers) pageView(c *gin.Context, ctrl *webui.Controller) webui.ViewModel {
	q, _ := c.GetPostForm("q")
	if v, ok := c.GetQuery("q"); ok {
		q = v
	}
	sort, _ := c.GetPostForm("sort")
	if v, ok := c.GetQuery("sort"); ok {
		sort = v
	}
	vm := webui.New(nil).WithFilter(q).WithSort(sort)
	return ctrl.Load(c.Request.Context(), vm)
}

// ContactsPage renders the contact list and form as HTML.
//
// Query parameters: q filters by name or email, sort picks a
// "<field>-<asc|desc>" order, edit=<id> opens that contact in the form and
// delete=<id> asks to confirm its removal.
func (h *Handlers) ContactsPage(c *gin.Context) {
	vm := h.pageView(c, h.controller())
	if vm.Banner.Kind == webui.BannerError {
		middleware.LoggerFrom(c).Warn().Msg("contacts page: list failed")
	}

	if id, parsed := utils.ParseID(c.Query("edit")); parsed {
		if edit, found := vm.StartEdit(id); found {
			vm = edit
		}
	}
	if id, parsed := utils.ParseID(c.Query("delete")); parsed {
		if ask, found := vm.AskDelete(id); found {
			vm = ask
		}
	}
	renderPage(c, http.StatusOK, vm)
}

// SubmitContactForm handles the page form. A posted id updates that contact,
// otherwise a new one is created. The page is re-rendered with the outcome:
// a reset form and success banner, or the typed values with field errors.
func (h *Handlers) SubmitContactForm(c *gin.Context) {
	ctrl := h.controller()
	vm := h.pageView(c, ctrl)

	if raw, ok := c.GetPostForm("id"); ok && raw != "" {
		id, parsed := utils.ParseID(raw)
		if !parsed {
			vm = vm.Notify(MsgInvalidID, webui.BannerError, ctrl.Now())
			renderPage(c, http.StatusBadRequest, vm)
			return
		}
		if edit, found := vm.StartEdit(id); found {
			vm = edit
		} else {
			// the update reports it missing
			vm.Mode, vm.EditingID = webui.ModeEdit, id
		}
	}

	vm = vm.SetField(webui.FieldName, c.PostForm("name")).
		SetField(webui.FieldEmail, c.PostForm("email")).
		SetField(webui.FieldPhone, c.PostForm("phone"))

	renderPage(c, http.StatusOK, ctrl.Submit(c.Request.Context(), vm))
}

// DeleteContactForm removes the contact named in the path once the posted
// confirm field is "yes". A posted editing id keeps that contact in the form
// unless it is the one removed.
func (h *Handlers) DeleteContactForm(c *gin.Context) {
	ctrl := h.controller()
	vm := h.pageView(c, ctrl)

	id, parsed := utils.ParseID(c.Param("id"))
	if !parsed {
		renderPage(c, http.StatusBadRequest, vm.Notify(MsgInvalidID, webui.BannerError, ctrl.Now()))
		return
	}
	if editing, ok := utils.ParseID(c.PostForm("editing")); ok {
		if edit, found := vm.StartEdit(editing); found {
			vm = edit
		}
	}

	confirmed := func() bool { return c.PostForm("confirm") == "yes" }
	renderPage(c, http.StatusOK, ctrl.Delete(c.Request.Context(), vm, id, confirmed))
}

func renderPage(c *gin.Context, status int, vm webui.ViewModel) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := webui.Render(c.Writer, vm, time.Now()); err != nil {
		_ = c.Error(err)
	}
}
