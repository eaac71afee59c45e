package server

import (
	stderrors "errors"
	"net/http"

	"github.com/sugawarayuuta/sonnet"

	"github.com/matzehuels/exorcism/pkg/errors"
	"github.com/matzehuels/exorcism/pkg/observability"
)

// codeRequestTooLarge is reported for bodies over the size limit.
const codeRequestTooLarge errors.Code = "REQUEST_TOO_LARGE"

// errorBody is the JSON shape of an error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      errors.Code `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeInvalidFormat:
		return http.StatusBadRequest
	case errors.ErrCodeTooManyCubes, codeRequestTooLarge:
		return http.StatusRequestEntityTooLarge
	case errors.ErrCodeOutOfMemory:
		return http.StatusInsufficientStorage
	case errors.ErrCodeNotEquivalent:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnsupported:
		return http.StatusMethodNotAllowed
	}
	return http.StatusInternalServerError
}

// classify returns the code and client-facing message of err.
func classify(err error) (errors.Code, string) {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return codeRequestTooLarge, "request body too large"
	}
	code := errors.GetCode(err)
	if code == "" {
		return errors.ErrCodeInternal, "internal error"
	}
	if code == errors.ErrCodeInternal {
		return code, "internal error"
	}
	return code, errors.UserMessage(err)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := classify(err)
	status := statusFor(code)
	if status >= 500 {
		s.logger.Error("request failed", "error", err, "request_id", RequestIDFromContext(r.Context()))
	}
	observability.HTTP().OnError(r.Context(), r.Method, routePattern(r), string(code))
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFromContext(r.Context()),
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonnet.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"encoding response"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func errNotFound(r *http.Request) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s %s", r.Method, r.URL.Path)
}

func errMethodNotAllowed(r *http.Request) error {
	return errors.New(errors.ErrCodeUnsupported, "method %s not allowed on %s", r.Method, r.URL.Path)
}
