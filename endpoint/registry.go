// Package endpoint maps logical backend operations to concrete request
// descriptors. The mapping is a declarative table of pure builders, so a
// backend routing change is a data edit, not a code rewrite. The package
// performs no I/O.
package endpoint

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Operation names a logical backend action independent of its route.
type Operation string

const (
	OpAccount               Operation = "account"
	OpAccounts              Operation = "accounts"
	OpAddress               Operation = "address"
	OpPlanComponents        Operation = "plan-components"
	OpComponentAvailability Operation = "component-availability"
	OpFieldUnique           Operation = "field-unique"
	OpPriceQuote            Operation = "price-quote"
	OpOrder                 Operation = "order"
	OpOrderUpdate           Operation = "order-update"
	OpOrderCancel           Operation = "order-cancel"
	OpDocumentUpload        Operation = "document-upload"
)

// Params carries every parameter any operation recognizes. Builders pick
// the ones they consume; the rest are ignored.
type Params struct {
	ID          string
	SecondaryID string
	Limit       int // 0 means "use the endpoint's default"
	Sort        string
	Filters     map[string]string
}

// RequestDescriptor is the immutable output of Resolve: everything the
// executor needs to issue the call, and nothing about how it was derived
// beyond the originating operation name, kept for observability.
type RequestDescriptor struct {
	Operation Operation
	Method    string
	URL       string
	Query     map[string]string
	// Public marks operations that are reachable without a bearer token.
	Public bool
}

// SlotKey identifies the descriptor's logical slot for race-guarding:
// two calls with the same operation and parameters share a slot.
func (d RequestDescriptor) SlotKey() string {
	var b strings.Builder
	b.WriteString(d.Method)
	b.WriteByte(' ')
	b.WriteString(d.URL)
	if len(d.Query) > 0 {
		keys := make([]string, 0, len(d.Query))
		for k := range d.Query {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte('&')
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(d.Query[k])
		}
	}
	return b.String()
}

// builder declares how one operation turns parameters into a descriptor.
// Build functions must be pure: same params, same descriptor.
type builder struct {
	method   string
	public   bool
	requires []string // parameter names checked before build runs
	build    func(p Params) (url string, query map[string]string)
}

// Registry resolves operations against the builder table.
type Registry struct {
	builders map[Operation]builder
}

func NewRegistry() *Registry {
	return &Registry{builders: defaultBuilders()}
}

// Resolve maps a logical operation and its parameters to a request
// descriptor. It fails fast with UnknownOperationError for unrecognized
// operations and MissingParameterError for absent required parameters;
// both indicate configuration bugs and must never be retried.
func (r *Registry) Resolve(op Operation, p Params) (RequestDescriptor, error) {
	b, ok := r.builders[op]
	if !ok {
		return RequestDescriptor{}, &UnknownOperationError{Operation: op}
	}

	for _, name := range b.requires {
		if !paramPresent(p, name) {
			return RequestDescriptor{}, &MissingParameterError{Operation: op, Param: name}
		}
	}

	url, query := b.build(p)
	return RequestDescriptor{
		Operation: op,
		Method:    b.method,
		URL:       url,
		Query:     query,
		Public:    b.public,
	}, nil
}

// Operations returns the sorted list of known operations.
func (r *Registry) Operations() []Operation {
	ops := make([]Operation, 0, len(r.builders))
	for op := range r.builders {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i] < ops[j] })
	return ops
}

func paramPresent(p Params, name string) bool {
	switch name {
	case "id":
		return p.ID != ""
	case "secondaryId":
		return p.SecondaryID != ""
	case "sort":
		return p.Sort != ""
	case "filters":
		return len(p.Filters) > 0
	default:
		return false
	}
}

func limitOrDefault(p Params, def int) string {
	if p.Limit > 0 {
		return strconv.Itoa(p.Limit)
	}
	return strconv.Itoa(def)
}

func mergeFilters(query map[string]string, p Params) map[string]string {
	for k, v := range p.Filters {
		query[k] = v
	}
	return query
}

func fmtPath(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
