package adminapi

import (
	"net/http"

	apierrors "github.com/ogon-project/sessionmgr/pkg/errors"
	"github.com/ogon-project/sessionmgr/pkg/logger"
)

// handlerWithError is an HTTP handler that can return an error, letting
// route handlers report failure by returning instead of writing the
// response body themselves.
type handlerWithError func(http.ResponseWriter, *http.Request) error

// errorHandler wraps fn, converting a returned error into an HTTP status
// (via apierrors.Code) plus a JSON error body. 5xx causes are logged in
// full and returned to the caller as a generic message; 4xx causes are
// returned verbatim, since they describe a caller mistake.
func errorHandler(fn handlerWithError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}

		code := apierrors.Code(err)
		message := err.Error()
		if code >= http.StatusInternalServerError {
			logger.Errorf("adminapi: %s %s: %v", r.Method, r.URL.Path, err)
			message = http.StatusText(code)
		}
		writeJSON(w, code, errorBody{Error: message})
	}
}

type errorBody struct {
	Error string `json:"error"`
}
