package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/groceryswap/internal/auth"
)

// UserHeader names the header the fronting proxy sets with the caller's
// numeric user id.
const UserHeader = "X-User-ID"

// RequireUser rejects requests without a valid UserHeader and stores the
// user id in the request context.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(UserHeader))
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
			return
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid "+UserHeader+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), id)))
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
