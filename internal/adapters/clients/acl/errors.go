package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// Codes carried in the quotebook error envelope.
const (
	codeNotFound    = "NOT_FOUND"
	codeValidation  = "VALIDATION_ERROR"
	codeNotReady    = "NOT_READY"
	codeUnavailable = "SERVICE_UNAVAILABLE"
)

// remoteError accepts both the nested quotebook envelope
// ({"error":{"code":..,"message":..}}) and the flat {"message":..} body
// dummyjson returns.
type remoteError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Message string `json:"message"`
}

func (r *remoteError) message() string {
	if r.Error.Message != "" {
		return r.Error.Message
	}

	return r.Message
}

// firstDetail returns the alphabetically first detail so repeated calls
// report the same field.
func (r *remoteError) firstDetail() (field, msg string, ok bool) {
	if len(r.Error.Details) == 0 {
		return "", "", false
	}

	keys := make([]string, 0, len(r.Error.Details))
	for k := range r.Error.Details {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys[0], r.Error.Details[keys[0]], true
}

// parseRemoteError decodes an error body. Unreadable or empty bodies give nil.
func parseRemoteError(body io.Reader) *remoteError {
	if body == nil {
		return nil
	}

	var r remoteError
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&r); err != nil {
		return nil
	}

	if r.Error.Code == "" && r.message() == "" {
		return nil
	}

	return &r
}

// transportError translates a failure from clients.Client.Do.
func transportError(err error, service, op string) error {
	switch {
	case errors.Is(err, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, op+": circuit breaker open")
	case errors.Is(err, clients.ErrMaxRetriesExceeded):
		return domain.NewUnavailableError(service, op+": retries exhausted")
	default:
		return domain.NewUnavailableError(service, fmt.Sprintf("%s: %v", op, err))
	}
}

// responseError translates a non-2xx response. The envelope code wins over
// the status when it is one the domain knows.
func responseError(resp *http.Response, service, op string) error {
	remote := parseRemoteError(resp.Body)

	if remote != nil {
		if err := fromCode(remote, service); err != nil {
			return err
		}
	}

	msg := fmt.Sprintf("%s: status %d", op, resp.StatusCode)
	if remote != nil && remote.message() != "" {
		msg = remote.message()
	}

	switch status := resp.StatusCode; {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(service, "")
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		if remote != nil {
			if field, detail, ok := remote.firstDetail(); ok {
				return domain.NewValidationError(field, detail)
			}
		}

		return domain.NewValidationError("", msg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(service, msg)
	default:
		return domain.NewValidationError("", msg)
	}
}

func fromCode(remote *remoteError, service string) error {
	switch remote.Error.Code {
	case codeNotFound:
		return domain.NewNotFoundError(service, "")
	case codeValidation:
		if field, detail, ok := remote.firstDetail(); ok {
			return domain.NewValidationError(field, detail)
		}

		return domain.NewValidationError("", remote.message())
	case codeNotReady:
		return domain.NewNotReadyError(domain.ParseLoadState(remote.Error.Details["state"]))
	case codeUnavailable:
		return domain.NewUnavailableError(service, remote.message())
	default:
		return nil
	}
}
