package endpoint

import "net/http"

// defaultBuilders is the full operation table. Each entry is isolated:
// editing one cannot affect routing of another. Defaults (like the
// accounts page size) live inside the specific builder because they are
// endpoint-specific, not global policy.
func defaultBuilders() map[Operation]builder {
	return map[Operation]builder{
		OpAccount: {
			method:   http.MethodGet,
			requires: []string{"id"},
			build: func(p Params) (string, map[string]string) {
				return fmtPath("/accounts/%s", p.ID), map[string]string{}
			},
		},
		OpAccounts: {
			method: http.MethodGet,
			build: func(p Params) (string, map[string]string) {
				query := map[string]string{
					"limit": limitOrDefault(p, 10),
				}
				if p.Sort != "" {
					query["sort"] = p.Sort
				}
				return "/accounts", mergeFilters(query, p)
			},
		},
		OpAddress: {
			method:   http.MethodGet,
			requires: []string{"id", "secondaryId"},
			build: func(p Params) (string, map[string]string) {
				return fmtPath("/accounts/%s/addresses/%s", p.ID, p.SecondaryID), map[string]string{}
			},
		},
		OpPlanComponents: {
			method:   http.MethodGet,
			public:   true,
			requires: []string{"id"},
			build: func(p Params) (string, map[string]string) {
				query := map[string]string{
					"limit": limitOrDefault(p, 50),
				}
				return fmtPath("/plans/%s/components", p.ID), query
			},
		},
		OpComponentAvailability: {
			method:   http.MethodGet,
			requires: []string{"id"},
			build: func(p Params) (string, map[string]string) {
				return fmtPath("/components/%s/availability", p.ID), map[string]string{}
			},
		},
		OpFieldUnique: {
			method:   http.MethodGet,
			requires: []string{"filters"},
			build: func(p Params) (string, map[string]string) {
				return "/validations/unique", mergeFilters(map[string]string{}, p)
			},
		},
		OpPriceQuote: {
			method: http.MethodPost,
			build: func(p Params) (string, map[string]string) {
				return "/quotes", map[string]string{}
			},
		},
		OpOrder: {
			method: http.MethodPost,
			build: func(p Params) (string, map[string]string) {
				return "/orders", map[string]string{}
			},
		},
		OpOrderUpdate: {
			method:   http.MethodPut,
			requires: []string{"id"},
			build: func(p Params) (string, map[string]string) {
				return fmtPath("/orders/%s", p.ID), map[string]string{}
			},
		},
		OpOrderCancel: {
			method:   http.MethodDelete,
			requires: []string{"id"},
			build: func(p Params) (string, map[string]string) {
				return fmtPath("/orders/%s", p.ID), map[string]string{}
			},
		},
		OpDocumentUpload: {
			method:   http.MethodPost,
			requires: []string{"id"},
			build: func(p Params) (string, map[string]string) {
				return fmtPath("/accounts/%s/documents", p.ID), map[string]string{}
			},
		},
	}
}
