package domain

import "context"

// DefaultDomain is the implicit filtering domain used when a connector has
// only one rule bundle (grounded on byoc.py's Filtering.DEFAULT_DOMAIN).
const DefaultDomain = "DEFAULT"

// FilterValidation is the verdict attached to a Filter's draft slot.
type FilterValidation struct {
	State  ValidationState `json:"state"`
	Errors []string        `json:"errors,omitempty"`
}

// Filter carries one rule bundle's basic rules, advanced snippet and
// validation verdict.
type Filter struct {
	AdvancedSnippet map[string]any   `json:"advanced_snippet,omitempty"`
	Rules           []map[string]any `json:"rules,omitempty"`
	Validation      FilterValidation `json:"validation,omitempty"`
}

// IsEmpty reports whether the filter carries no rules, no advanced snippet
// and no explicit validation state.
func (f Filter) IsEmpty() bool {
	return len(f.AdvancedSnippet) == 0 && len(f.Rules) == 0 && f.Validation.State == ValidationStateUnset
}

// HasAdvancedRules reports whether the filter's advanced snippet carries a
// non-empty "value" entry.
func (f Filter) HasAdvancedRules() bool {
	if f.AdvancedSnippet == nil {
		return false
	}
	v, ok := f.AdvancedSnippet["value"]
	if !ok || v == nil {
		return false
	}
	switch value := v.(type) {
	case map[string]any:
		return len(value) > 0
	case []any:
		return len(value) > 0
	case string:
		return value != ""
	default:
		return true
	}
}

// HasValidationState reports whether the filter's validation is in state s.
func (f Filter) HasValidationState(s ValidationState) bool {
	return f.Validation.State == s
}

// TransformedFilter is the always-shaped form a Filter is captured into when
// snapshotted onto a SyncJob -- downstream code never sees missing keys.
type TransformedFilter struct {
	AdvancedSnippet map[string]any   `json:"advanced_snippet"`
	Rules           []map[string]any `json:"rules"`
}

// TransformFiltering returns the always-shaped snapshot form of f: an empty
// filter becomes {advanced_snippet: {}, rules: []}; a non-empty filter
// preserves every key.
func (f Filter) TransformFiltering() TransformedFilter {
	if f.IsEmpty() {
		return TransformedFilter{
			AdvancedSnippet: map[string]any{},
			Rules:           []map[string]any{},
		}
	}
	snippet := f.AdvancedSnippet
	if snippet == nil {
		snippet = map[string]any{}
	}
	rules := f.Rules
	if rules == nil {
		rules = []map[string]any{}
	}
	return TransformedFilter{AdvancedSnippet: snippet, Rules: rules}
}

// FilterBundle is one {domain, draft, active} entry of a Connector's
// filtering sequence.
type FilterBundle struct {
	Domain string `json:"domain"`
	Draft  Filter `json:"draft"`
	Active Filter `json:"active"`
}

// Filtering is the ordered sequence of per-domain rule bundles carried by a
// Connector.
type Filtering []FilterBundle

// FilterState selects which slot of a bundle to read.
type FilterState string

const (
	FilterStateDraft  FilterState = "draft"
	FilterStateActive FilterState = "active"
)

// GetFilter returns the first bundle matching domain, projected to its state
// slot, or an empty Filter if no bundle matches.
func (f Filtering) GetFilter(state FilterState, domain string) Filter {
	for _, bundle := range f {
		if bundle.Domain != domain {
			continue
		}
		if state == FilterStateDraft {
			return bundle.Draft
		}
		return bundle.Active
	}
	return Filter{}
}

// GetActiveFilter returns the active filter for the default domain.
func (f Filtering) GetActiveFilter() Filter {
	return f.GetFilter(FilterStateActive, DefaultDomain)
}

// GetDraftFilter returns the draft filter for the default domain.
func (f Filtering) GetDraftFilter() Filter {
	return f.GetFilter(FilterStateDraft, DefaultDomain)
}

// FilterValidator validates a draft Filter's rules (an external collaborator:
// the basic-rules validator and/or the adapter-specific advanced-rules
// validator).
type FilterValidator interface {
	ValidateFiltering(ctx context.Context, filter Filter) (FilterValidation, error)
}
