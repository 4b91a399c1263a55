package console

import (
	"github.com/go-chi/chi/v5"

	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/audit"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/authority"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/certify"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/locate"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/registry"
	"github.com/oasisinternationalholdingsinc-cyber/oasis-ledger-sub001/pkg/scope"
)

// NewRouter creates a chi router with the console routes. trail may be
// nil to disable the audit endpoint.
func NewRouter(
	records *registry.RecordStore,
	resolver *authority.Resolver,
	locator *locate.Locator,
	coordinator *certify.Coordinator,
	trail *audit.Store,
) chi.Router {
	r := chi.NewRouter()
	r.Use(scope.Middleware())

	r.Route("/records/{id}", func(r chi.Router) {
		r.Get("/resolution", resolutionHandler(records, resolver))
		r.Get("/file-url", fileURLHandler(records, resolver, locator))
		r.Post("/certify", certifyHandler(records, coordinator))
		if trail != nil {
			r.Get("/audit", auditHandler(records, trail))
		}
	})

	return r
}
