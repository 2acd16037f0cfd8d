package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

// BasicRuleValidator is the built-in domain.FilterValidator: it checks a
// draft Filter's basic rules carry the required keys, modelled on byoc.py's
// BasicRuleEngine. The advanced snippet is not checked.
type BasicRuleValidator struct{}

var _ domain.FilterValidator = BasicRuleValidator{}

var requiredRuleFields = []string{"field", "rule", "value", "policy"}

// ValidateFiltering checks every basic rule in filter.Rules carries the
// fields a rule needs to be evaluated, and reports the filter valid if
// none are malformed.
func (BasicRuleValidator) ValidateFiltering(_ context.Context, filter domain.Filter) (domain.FilterValidation, error) {
	var errs []string
	for i, rule := range filter.Rules {
		for _, field := range requiredRuleFields {
			if _, ok := rule[field]; !ok {
				errs = append(errs, fmt.Sprintf("rule %d missing required field %q", i, field))
			}
		}
	}
	if len(errs) > 0 {
		return domain.FilterValidation{State: domain.ValidationStateInvalid, Errors: errs}, nil
	}
	return domain.FilterValidation{State: domain.ValidationStateValid}, nil
}
