package results

import (
	"sort"
	"strings"

	"github.com/mlastra-dana/PerfilabPortal/internal/domain/identity"
)

// Owns reports whether d belongs to id, either through the resolved internal
// id or through the raw document number.
func Owns(d *Document, id identity.Identity) bool {
	if id.InternalID != "" && d.OwnerID == id.InternalID {
		return true
	}
	key := id.Key()
	return key != "" && identity.NormalizeKey(d.OwnerDocument) == key
}

// Accept reports whether d passes every filter.
func (f Filters) Accept(d *Document) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(d.Title), q) &&
			!strings.Contains(strings.ToLower(d.FileName), q) {
			return false
		}
	}
	if f.Kind != "" && f.Kind != "all" && string(d.Kind) != f.Kind {
		return false
	}
	if f.Service != "" && f.Service != "all" && d.ResolvedService() != f.Service {
		return false
	}
	date := calendarDate(d.Date)
	if f.From != "" && date < f.From {
		return false
	}
	if f.To != "" && date > f.To {
		return false
	}
	return true
}

// calendarDate keeps the first ten characters of a date or date-time.
func calendarDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// Match selects the documents id may see and applies f. When requirePolicy is
// set the document's policy must equal the identity's, and an identity
// without a policy sees nothing. The result is sorted by raw date string,
// newest first; ties keep their input order. Every candidate is visited once,
// so a document reachable both ways appears once.
func Match(docs []*Document, id identity.Identity, requirePolicy bool, f Filters) []*Document {
	out := []*Document{}
	policy := identity.NormalizeKey(id.PolicyNumber)
	if requirePolicy && policy == "" {
		return out
	}
	for _, d := range docs {
		if !Owns(d, id) {
			continue
		}
		if requirePolicy && identity.NormalizeKey(d.PolicyNumber) != policy {
			continue
		}
		if !f.Accept(d) {
			continue
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// Filter applies f to docs, keeping their order.
func Filter(docs []*Document, f Filters) []*Document {
	out := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if f.Accept(d) {
			out = append(out, d)
		}
	}
	return out
}

// ServiceOptions returns the distinct resolved service labels, sorted.
func ServiceOptions(docs []*Document) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, d := range docs {
		s := d.ResolvedService()
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
