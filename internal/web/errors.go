package web

// errors.go turns service errors into responses.
//
// The error flow:
//  1. Handler receives an error from the service or request decoding
//  2. Calls respondError(w, r, err)
//  3. core.MapError picks the user-facing message and code
//  4. The code picks the HTTP status
//  5. The technical error is logged with the request id; the client gets
//     the user message as JSON (API) or an HTML alert (pages)

import (
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/roster/internal/core"
	"github.com/JonMunkholm/roster/internal/logging"
	"github.com/JonMunkholm/roster/internal/web/views"
)

// errNoFile is returned for a multipart request without a usable file part.
var errNoFile = errors.New("no file provided")

// ErrorDetail is one machine-readable problem.
type ErrorDetail struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Errors  []ErrorDetail `json:"errors"`
	Message string        `json:"message"`
	Action  string        `json:"action,omitempty"`
	Code    string        `json:"code"`
}

// statusForCode maps MapError codes to HTTP statuses.
func statusForCode(code string) int {
	switch code {
	case "EMP001":
		return http.StatusUnsupportedMediaType
	case "EMP002", "EMP003", "EMP004", "FILE003", "FILE004", "FILE005":
		return http.StatusBadRequest
	case "EMP005":
		return http.StatusNotFound
	case "EMP006", "DB001", "DB002":
		return http.StatusConflict
	case "FILE001":
		return http.StatusRequestEntityTooLarge
	case "UPL002", "RATE001":
		return http.StatusTooManyRequests
	case "DB004", "DB005", "DB006", "DB007", "UPL004", "UPL005":
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// newErrorResponse builds the body for err. Validation failures list one
// detail per violation.
func newErrorResponse(err error) (ErrorResponse, int) {
	msg := core.MapError(err)
	resp := ErrorResponse{Message: msg.Message, Action: msg.Action, Code: msg.Code}

	var verr *core.ValidationError
	if errors.As(err, &verr) && len(verr.Violations) > 0 {
		for _, v := range verr.Violations {
			resp.Errors = append(resp.Errors, ErrorDetail{Code: v.Code(), Description: v.Message})
		}
	} else {
		resp.Errors = []ErrorDetail{{Code: msg.Code, Description: msg.Message}}
	}
	return resp, statusForCode(msg.Code)
}

// respondError logs err and writes the user-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	resp, status := newErrorResponse(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{"path", r.URL.Path, "method", r.Method, "status", status, "code", resp.Code, "error", err.Error()}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Info("request rejected", attrs...)
	}

	if wantsJSON(r) {
		writeJSON(w, status, resp)
		return
	}
	templ.Handler(views.ErrorPage(resp.Message, resp.Action, resp.Code),
		templ.WithStatus(status)).ServeHTTP(w, r)
}

// wantsJSON reports whether the client should get a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
