package transform

import "github.com/plancraft/plancraft/endpoint"

// defaultTables covers the wire shapes of the currently supported backend
// version. Data edits here are the whole cost of a backend migration.
func defaultTables() map[endpoint.Operation]Table {
	return map[endpoint.Operation]Table{
		endpoint.OpAccount: {
			{Canonical: "id", Wire: "account_id"},
			{Canonical: "name", Wire: "profile.full_name"},
			{Canonical: "email", Wire: "profile.email"},
			{Canonical: "status", Wire: "status"},
			{Canonical: "tier", Wire: "billing.tier", Optional: true},
		},
		endpoint.OpAccounts: {
			{Canonical: "items", Wire: "data"},
			{Canonical: "total", Wire: "meta.total_count"},
			{Canonical: "limit", Wire: "meta.page_size"},
		},
		endpoint.OpAddress: {
			{Canonical: "id", Wire: "address_id"},
			{Canonical: "line1", Wire: "street.line_1"},
			{Canonical: "line2", Wire: "street.line_2", Optional: true},
			{Canonical: "city", Wire: "city"},
			{Canonical: "postalCode", Wire: "postal_code"},
			{Canonical: "country", Wire: "country_code"},
		},
		endpoint.OpPlanComponents: {
			{Canonical: "planId", Wire: "plan_id"},
			{Canonical: "components", Wire: "components"},
		},
		endpoint.OpComponentAvailability: {
			{Canonical: "componentId", Wire: "component_id"},
			{Canonical: "available", Wire: "availability.in_stock"},
			{Canonical: "leadDays", Wire: "availability.lead_time_days", Optional: true},
		},
		endpoint.OpFieldUnique: {
			{Canonical: "unique", Wire: "result.is_unique"},
		},
		endpoint.OpPriceQuote: {
			{Canonical: "components", Wire: "line_items"},
			{Canonical: "currency", Wire: "currency_code"},
			{Canonical: "total", Wire: "totals.grand_total", Optional: true},
		},
		endpoint.OpOrder: {
			{Canonical: "accountId", Wire: "account_id"},
			{Canonical: "components", Wire: "line_items"},
			{Canonical: "orderId", Wire: "order.id", Optional: true},
		},
		endpoint.OpOrderUpdate: {
			{Canonical: "components", Wire: "line_items"},
			{Canonical: "orderId", Wire: "order.id", Optional: true},
		},
		endpoint.OpOrderCancel: {
			{Canonical: "orderId", Wire: "order.id", Optional: true},
			{Canonical: "cancelled", Wire: "order.cancelled", Optional: true},
		},
		endpoint.OpDocumentUpload: {
			{Canonical: "documentId", Wire: "document.id", Optional: true},
			{Canonical: "kind", Wire: "document.kind", Optional: true},
		},
	}
}
