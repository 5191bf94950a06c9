package vectorstore

// Filter is a small AND/OR tree over equality and "in" predicates,
// matched against a point's payload. A nil *Filter matches everything.
//
// Exactly one of the fields below is set on any given node: And/Or hold
// child filters, Eq/In hold a leaf predicate.
type Filter struct {
	And []*Filter
	Or  []*Filter

	Eq *EqPredicate
	In *InPredicate
}

// EqPredicate matches a payload field against a single value.
type EqPredicate struct {
	Field string
	Value any
}

// InPredicate matches a payload field against a set of candidate values.
// Used for multi-valued fields such as categories, and for section-number
// prefix membership lists built by the caller.
type InPredicate struct {
	Field  string
	Values []any
}

// And builds a conjunction of filters.
func And(filters ...*Filter) *Filter { return &Filter{And: filters} }

// Or builds a disjunction of filters.
func Or(filters ...*Filter) *Filter { return &Filter{Or: filters} }

// Eq builds a leaf equality filter.
func Eq(field string, value any) *Filter {
	return &Filter{Eq: &EqPredicate{Field: field, Value: value}}
}

// In builds a leaf set-membership filter.
func In(field string, values ...any) *Filter {
	return &Filter{In: &InPredicate{Field: field, Values: values}}
}

// Matches evaluates the filter against an in-memory payload. Backends with
// no native filter-push-down (the in-process fallback, and post-filtering
// within chromem's string-map where-clause limits) use this directly;
// backends with native filters compile the tree instead and never call it.
func (f *Filter) Matches(payload map[string]any) bool {
	if f == nil {
		return true
	}

	switch {
	case f.Eq != nil:
		return matchesValue(payload[f.Eq.Field], f.Eq.Value)
	case f.In != nil:
		actual := payload[f.In.Field]
		for _, candidate := range f.In.Values {
			if matchesValue(actual, candidate) {
				return true
			}
			if matchesMember(actual, candidate) {
				return true
			}
		}
		return false
	case len(f.And) > 0:
		for _, child := range f.And {
			if !child.Matches(payload) {
				return false
			}
		}
		return true
	case len(f.Or) > 0:
		for _, child := range f.Or {
			if child.Matches(payload) {
				return true
			}
		}
		return false
	default:
		return true
	}
}

// matchesValue compares a scalar payload field to a candidate value,
// folding numeric types (JSON round-trips tend to produce float64) so
// int(5) and float64(5) compare equal.
func matchesValue(actual, candidate any) bool {
	if actual == candidate {
		return true
	}
	af, aok := asFloat(actual)
	cf, cok := asFloat(candidate)
	if aok && cok {
		return af == cf
	}
	as, aok := actual.(string)
	cs, cok := candidate.(string)
	return aok && cok && as == cs
}

// matchesMember reports whether candidate appears inside actual when
// actual is a slice-valued payload field (e.g. categories: []string).
func matchesMember(actual, candidate any) bool {
	switch v := actual.(type) {
	case []string:
		cs, ok := candidate.(string)
		if !ok {
			return false
		}
		for _, item := range v {
			if item == cs {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if matchesValue(item, candidate) {
				return true
			}
		}
	}
	return false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
