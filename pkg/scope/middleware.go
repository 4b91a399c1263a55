package scope

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/lane"
)

// Middleware resolves the viewer from request headers and stores it in the
// request context. X-Entity-ID is mandatory; X-Lane selects the active
// lane ("test" or "real", defaulting to real); X-User-Principal names the
// actor for audit events. Header-based viewer resolution is the
// development auth mode; deployments terminate auth upstream and inject
// these headers.
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := viewerFromRequest(r)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "bad_request",
					"message": err.Error(),
				})
				return
			}

			ctx := WithViewer(r.Context(), viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func viewerFromRequest(r *http.Request) (Viewer, error) {
	entityID := r.Header.Get("X-Entity-ID")
	if entityID == "" {
		return Viewer{}, fmt.Errorf("missing X-Entity-ID header")
	}

	active := lane.Real
	switch r.Header.Get("X-Lane") {
	case "", "real":
	case "test":
		active = lane.Test
	default:
		return Viewer{}, fmt.Errorf("invalid X-Lane header: %q (expected test or real)", r.Header.Get("X-Lane"))
	}

	actor := r.Header.Get("X-User-Principal")
	if actor == "" {
		actor = "system"
	}

	return Viewer{EntityID: entityID, Lane: active, Actor: actor}, nil
}
