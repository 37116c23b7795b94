package webui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/tbourn/go-contacts-backend/internal/domain"
)

// ContactInput is the body the form submits.
type ContactInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ContactsAPI is what the Controller needs from the backend.
type ContactsAPI interface {
	List(ctx context.Context) ([]domain.Contact, error)
	Create(ctx context.Context, in ContactInput) (*domain.Contact, error)
	Update(ctx context.Context, id int64, in ContactInput) (*domain.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// APIError is a non-2xx response. Message carries the server's "error" text
// and Errors its validation list, either of which may be empty.
type APIError struct {
	Status  int
	Message string
	Errors  []string
}

func (e *APIError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case len(e.Errors) > 0:
		return strings.Join(e.Errors, "; ")
	default:
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
}

// APIClient talks to the contacts REST API rooted at BaseURL
// (e.g. http://localhost:3000/api/contacts).
type APIClient struct {
	BaseURL string
	HTTP    *http.Client
}

// NewAPIClient returns a client for baseURL; hc defaults to http.DefaultClient.
func NewAPIClient(baseURL string, hc *http.Client) *APIClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &APIClient{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

func (c *APIClient) List(ctx context.Context) ([]domain.Contact, error) {
	var out []domain.Contact
	if err := c.do(ctx, http.MethodGet, c.BaseURL, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []domain.Contact{}
	}
	return out, nil
}

func (c *APIClient) Create(ctx context.Context, in ContactInput) (*domain.Contact, error) {
	var out domain.Contact
	if err := c.do(ctx, http.MethodPost, c.BaseURL, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Update(ctx context.Context, id int64, in ContactInput) (*domain.Contact, error) {
	var out domain.Contact
	if err := c.do(ctx, http.MethodPut, c.itemURL(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *APIClient) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.itemURL(id), nil, nil)
}

func (c *APIClient) itemURL(id int64) string {
	return c.BaseURL + "/" + strconv.FormatInt(id, 10)
}

// envelope is the error body shape of the API.
type envelope struct {
	Error  string   `json:"error"`
	Errors []string `json:"errors"`
}

func (c *APIClient) do(ctx context.Context, method, url string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		var env envelope
		if json.NewDecoder(res.Body).Decode(&env) == nil {
			apiErr.Message = env.Error
			apiErr.Errors = env.Errors
		}
		return apiErr
	}
	if out == nil || res.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
