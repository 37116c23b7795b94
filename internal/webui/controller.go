package webui

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Banner texts shown by the Controller.
const (
	MsgFixForm         = "Please fix the errors in the form"
	MsgFixValidation   = "Please fix the validation errors"
	MsgCreated         = "Contact created successfully!"
	MsgUpdated         = "Contact updated successfully!"
	MsgDeleted         = "Contact deleted successfully!"
	MsgCreateFailed    = "Failed to create contact"
	MsgUpdateFailed    = "Failed to update contact"
	MsgDeleteFailed    = "Failed to delete contact"
	MsgLoadFailed      = "Failed to load contacts. Please try again."
	MsgConfirmDelete   = "Are you sure you want to delete this contact?"
	msgEmailDuplicated = "Email already exists"
)

// Controller drives a ViewModel against the API.
type Controller struct {
	API ContactsAPI
	Now func() time.Time
}

// NewController returns a Controller using the wall clock.
func NewController(api ContactsAPI) *Controller {
	return &Controller{API: api, Now: time.Now}
}

func (c *Controller) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// Load fetches the contact list into vm. On failure the previous items are
// kept and an error banner is shown.
func (c *Controller) Load(ctx context.Context, vm ViewModel) ViewModel {
	items, err := c.API.List(ctx)
	if err != nil {
		return vm.Notify(MsgLoadFailed, BannerError, c.now())
	}
	return vm.WithItems(items)
}

// Submit validates the form and creates or updates depending on the mode.
// On success the form resets to create mode and the list is reloaded; on
// failure the form keeps its values and gains field errors and a banner.
func (c *Controller) Submit(ctx context.Context, vm ViewModel) ViewModel {
	vm = vm.ClearErrors()
	vm, ok := vm.ValidateForm()
	if !ok {
		return vm.Notify(MsgFixForm, BannerError, c.now())
	}

	var err error
	if vm.Mode == ModeEdit {
		_, err = c.API.Update(ctx, vm.EditingID, vm.Input())
	} else {
		_, err = c.API.Create(ctx, vm.Input())
	}
	if err != nil {
		return c.submitFailed(vm, err)
	}

	msg := MsgCreated
	if vm.Mode == ModeEdit {
		msg = MsgUpdated
	}
	vm = vm.Reset().Notify(msg, BannerSuccess, c.now())
	return c.Load(ctx, vm)
}

func (c *Controller) submitFailed(vm ViewModel, err error) ViewModel {
	var apiErr *APIError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		return vm.ApplyServerErrors(apiErr.Errors).Notify(MsgFixValidation, BannerError, c.now())
	}

	text := err.Error()
	if apiErr != nil && apiErr.Message == "" {
		text = MsgCreateFailed
		if vm.Mode == ModeEdit {
			text = MsgUpdateFailed
		}
	}
	if strings.Contains(text, msgEmailDuplicated) {
		vm.Form.Email.Error = msgEmailDuplicated
	}
	return vm.Notify(text, BannerError, c.now())
}

// Delete removes contact id once confirm returns true, then reloads the list.
// A declined confirmation leaves vm untouched.
func (c *Controller) Delete(ctx context.Context, vm ViewModel, id int64, confirm func() bool) ViewModel {
	if confirm != nil && !confirm() {
		return vm
	}
	vm.PendingDelete = 0
	if err := c.API.Delete(ctx, id); err != nil {
		text := err.Error()
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Message == "" {
			text = MsgDeleteFailed
		}
		return vm.Notify(text, BannerError, c.now())
	}
	vm = vm.Notify(MsgDeleted, BannerSuccess, c.now())
	if vm.Mode == ModeEdit && vm.EditingID == id {
		vm = vm.Reset()
	}
	return c.Load(ctx, vm)
}
