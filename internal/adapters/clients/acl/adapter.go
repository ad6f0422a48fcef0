package acl

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Adapter wraps a client for one downstream and returns domain errors.
// Embed it in service-specific adapters.
type Adapter struct {
	client  *clients.Client
	service string
}

// NewAdapter creates an Adapter. service names the downstream in errors.
func NewAdapter(client *clients.Client, service string) Adapter {
	return Adapter{client: client, service: service}
}

// Service returns the downstream name.
func (a *Adapter) Service() string {
	return a.service
}

// Get fetches path. The caller closes the returned body.
func (a *Adapter) Get(ctx context.Context, path, op string) (io.ReadCloser, error) {
	resp, err := a.client.Get(ctx, path)
	return a.body(resp, err, op)
}

// Post sends body as JSON to path. The caller closes the returned body.
func (a *Adapter) Post(ctx context.Context, path string, body io.Reader, op string) (io.ReadCloser, error) {
	resp, err := a.client.Post(ctx, path, body)
	return a.body(resp, err, op)
}

// Delete deletes path. The caller closes the returned body.
func (a *Adapter) Delete(ctx context.Context, path, op string) (io.ReadCloser, error) {
	resp, err := a.client.Delete(ctx, path)
	return a.body(resp, err, op)
}

func (a *Adapter) body(resp *http.Response, err error, op string) (io.ReadCloser, error) {
	if err != nil {
		return nil, transportError(err, a.service, op)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		defer func() { _ = resp.Body.Close() }()

		return nil, responseError(resp, a.service, op)
	}

	return resp.Body, nil
}

// Decode reads one JSON value of type T from body and closes it. A body
// that does not decode means the downstream is misbehaving, so the error
// is an UnavailableError for service.
func Decode[T any](body io.ReadCloser, service string) (*T, error) {
	if body == nil {
		return nil, domain.NewUnavailableError(service, "empty response")
	}
	defer func() { _ = body.Close() }()

	var v T
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		return nil, domain.NewUnavailableError(service, "decoding response: "+err.Error())
	}

	return &v, nil
}

// keepValid translates every record and drops the ones that fail.
// dropped sees the index and error of each and may be nil.
func keepValid[E, D any](records []E, translate func(*E) (D, error), dropped func(int, error)) []D {
	out := make([]D, 0, len(records))

	for i := range records {
		v, err := translate(&records[i])
		if err != nil {
			if dropped != nil {
				dropped(i, err)
			}

			continue
		}

		out = append(out, v)
	}

	return out
}
