package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/jnst/store-backoffice/internal/model"
)

const (
	contentTypeHeader      = "Content-Type"
	applicationJSON        = "application/json"
	applicationProblemJSON = "application/problem+json"

	// statusClientClosedRequest is used when the caller went away first.
	statusClientClosedRequest = 499

	genericErrorDetail = "An unexpected error occurred while processing the request."
)

// Problem is an RFC 9457 problem details body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance"`
	TraceID  string `json:"traceId,omitempty"`
	Debug    string `json:"debug,omitempty"`
}

var problemTypes = map[int]string{
	http.StatusBadRequest:          "https://tools.ietf.org/html/rfc9110#section-15.5.1",
	http.StatusUnauthorized:        "https://tools.ietf.org/html/rfc9110#section-15.5.2",
	http.StatusForbidden:           "https://tools.ietf.org/html/rfc9110#section-15.5.4",
	http.StatusNotFound:            "https://tools.ietf.org/html/rfc9110#section-15.5.5",
	http.StatusConflict:            "https://tools.ietf.org/html/rfc9110#section-15.5.10",
	http.StatusInternalServerError: "https://tools.ietf.org/html/rfc9110#section-15.6.1",
}

func statusFor(err error) int {
	if errors.Is(err, context.Canceled) {
		return statusClientClosedRequest
	}

	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindUnauthorized:
		return http.StatusUnauthorized
	case model.KindForbidden:
		return http.StatusForbidden
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func titleFor(status int) string {
	if status == statusClientClosedRequest {
		return "Client Closed Request"
	}

	return http.StatusText(status)
}

// writeError renders err as a problem. Internal errors never expose their
// text unless showCritical is set.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	problem := Problem{
		Type:     problemTypes[status],
		Title:    titleFor(status),
		Status:   status,
		Instance: r.URL.Path,
		TraceID:  middleware.GetReqID(r.Context()),
	}

	if problem.Type == "" {
		problem.Type = "about:blank"
	}

	var domainErr *model.Error

	switch {
	case status >= http.StatusInternalServerError:
		s.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)

		problem.Detail = genericErrorDetail
		if s.showCritical {
			problem.Debug = err.Error()
		}
	case errors.As(err, &domainErr):
		problem.Detail = domainErr.Message
	default:
		problem.Detail = err.Error()
	}

	w.Header().Set(contentTypeHeader, applicationProblemJSON)
	w.WriteHeader(status)

	if encodeErr := json.NewEncoder(w).Encode(problem); encodeErr != nil {
		s.logger.Error("failed to encode problem", slog.String("error", encodeErr.Error()))
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(contentTypeHeader, applicationJSON)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// errMalformedBody is returned for a request body that is not valid JSON.
var errMalformedBody = model.NewError(model.KindValidation, "the request body is not valid JSON")

// errMalformedID is returned for a non-numeric path id.
var errMalformedID = model.NewError(model.KindValidation, "the id in the path must be a positive integer")

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.WrapError(model.KindValidation, err, "%s", errMalformedBody.Message)
	}

	return nil
}
