package youtube

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call.
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindQuotaExceeded
	KindServer
	KindNetwork
	KindClient
)

var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrQuotaExceeded   = errors.New("API quota exceeded")
	ErrServer          = errors.New("server error")
	ErrNetwork         = errors.New("network error")
	ErrClient          = errors.New("request rejected")

	// ErrNoItems is returned by single-item lookups that came back empty.
	ErrNoItems = errors.New("response contained no items")
)

func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "unauthenticated"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	case KindClient:
		return "client"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnauthenticated:
		return ErrUnauthenticated
	case KindQuotaExceeded:
		return ErrQuotaExceeded
	case KindServer:
		return ErrServer
	case KindNetwork:
		return ErrNetwork
	case KindClient:
		return ErrClient
	default:
		return nil
	}
}

// APIError describes a call that did not succeed. It matches its kind's
// sentinel with errors.Is and unwraps to the transport error, if any.
type APIError struct {
	Kind     Kind
	Endpoint Endpoint
	Method   string
	Status   int
	Reason   string
	Message  string
	Attempts int
	Err      error
}

func (e *APIError) Error() string {
	switch {
	case e.Kind == KindUnauthenticated:
		return ErrUnauthenticated.Error()
	case e.Kind == KindQuotaExceeded:
		return fmt.Sprintf("%s: %s", ErrQuotaExceeded, e.describe())
	case e.Status > 0:
		return fmt.Sprintf("API error %d on %s %s: %s", e.Status, e.Method, e.Endpoint, e.describe())
	case e.Err != nil:
		return fmt.Sprintf("%s calling %s %s: %v", e.Kind.sentinel(), e.Method, e.Endpoint, e.Err)
	default:
		return e.Kind.sentinel().Error()
	}
}

func (e *APIError) describe() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Status > 0 {
		return http.StatusText(e.Status)
	}
	return "unknown error"
}

func (e *APIError) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) retryable() bool {
	return e.Kind == KindServer || e.Kind == KindNetwork
}

// errorBody is the error envelope the Data API returns with non-2xx responses.
type errorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
			Domain  string `json:"domain"`
		} `json:"errors"`
	} `json:"error"`
}

// parseErrorBody extracts the first reason code and the message. Bodies that
// are not JSON yield empty strings.
func parseErrorBody(body []byte) (reason, message string) {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return "", ""
	}
	message = eb.Error.Message
	for _, e := range eb.Error.Errors {
		if e.Reason != "" {
			reason = e.Reason
			break
		}
	}
	return reason, message
}

func isQuotaReason(reason string) bool {
	switch reason {
	case "quotaExceeded", "dailyLimitExceeded":
		return true
	default:
		return false
	}
}

// IsQuotaExceeded is shorthand for errors.Is(err, ErrQuotaExceeded).
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrQuotaExceeded)
}

// Reason returns a short human-readable cause for err, suitable for
// per-item failure lists.
func Reason(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			if apiErr.Status > 0 {
				return fmt.Sprintf("%d: %s", apiErr.Status, apiErr.Message)
			}
			return apiErr.Message
		}
		return apiErr.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
