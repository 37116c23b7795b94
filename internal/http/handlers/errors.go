package handlers

// Error codes carried in the "code" field of error envelopes. Clients branch
// on these; the "error" text is for people.
const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeInternal         = "internal_error"
)

// Messages shared by the contact endpoints.
const (
	MsgInvalidID        = "Invalid contact id"
	MsgNotFound         = "Contact not found"
	MsgEmailExists      = "Email already exists"
	MsgInvalidJSON      = "invalid JSON body"
	MsgBodyTooLarge     = "request body too large"
	MsgRouteNotFound    = "route not found"
	MsgMethodNotAllowed = "method not allowed"
)
