package adminapi

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/ogon-project/sessionmgr/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierrors.Wrap(apierrors.ErrDecode, "malformed request body", err)
	}
	return nil
}
