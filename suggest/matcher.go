// Package suggest ranks medicine reference rows against a typed query and
// drives the floating candidate list bound to the medicine name field.
package suggest

import (
	"sort"
	"strings"

	"github.com/giygas/rxcomposer/entities"
	"github.com/giygas/rxcomposer/interfaces"
	"golang.org/x/text/cases"
)

const (
	// ScanCap stops the substring pass once this many rows matched.
	ScanCap = 18
	// DisplayCap is the number of ranked candidates shown.
	DisplayCap = 12
)

// Matcher searches the reference set held by a ReferenceStore.
type Matcher struct {
	store interfaces.ReferenceStore
	// OnMatch, when set, observes each query and its candidate count.
	OnMatch func(query string, candidates int)
}

func NewMatcher(store interfaces.ReferenceStore) *Matcher {
	return &Matcher{store: store}
}

func fold(s string) string {
	// cases.Caser is stateful, so each call gets its own.
	return cases.Fold().String(s)
}

// Match returns at most DisplayCap candidates for query. A blank query yields
// the first DisplayCap rows in dataset order.
func (m *Matcher) Match(query string) []entities.Medicine {
	out := Rank(m.store.GetMedicines(), query)
	if m.OnMatch != nil {
		m.OnMatch(query, len(out))
	}
	return out
}

// Rank runs the substring scan over meds and orders the hits: rows whose name
// starts with the query first, then by case-folded name.
func Rank(meds []entities.Medicine, query string) []entities.Medicine {
	q := fold(strings.TrimSpace(query))
	if q == "" {
		n := min(len(meds), DisplayCap)
		out := make([]entities.Medicine, n)
		copy(out, meds[:n])
		return out
	}

	type hit struct {
		med  entities.Medicine
		name string
		tier int
	}

	hits := make([]hit, 0, ScanCap)
	for i := 0; i < len(meds) && len(hits) < ScanCap; i++ {
		m := meds[i]
		hay := fold(m.Name + " " + m.Strength + " " + m.Form)
		if !strings.Contains(hay, q) {
			continue
		}
		name := fold(m.Name)
		tier := 1
		if strings.HasPrefix(name, q) {
			tier = 0
		}
		hits = append(hits, hit{med: m, name: name, tier: tier})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].tier != hits[j].tier {
			return hits[i].tier < hits[j].tier
		}
		return hits[i].name < hits[j].name
	})

	n := min(len(hits), DisplayCap)
	out := make([]entities.Medicine, n)
	for i := range out {
		out[i] = hits[i].med
	}
	return out
}
