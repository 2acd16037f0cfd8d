package domain

import "time"

// Helpers for reading and writing the untyped RawDoc shape that backs every
// wrapper. Kept in one file since every accessor in connector.go/syncjob.go
// goes through them.

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func getBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func getInt(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func getTime(m map[string]any, key string) *time.Time {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func isoUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseFilter(raw any) Filter {
	m, ok := raw.(map[string]any)
	if !ok {
		return Filter{}
	}
	f := Filter{}
	if snippet, ok := m["advanced_snippet"].(map[string]any); ok {
		f.AdvancedSnippet = snippet
	}
	if rules, ok := m["rules"].([]any); ok {
		for _, r := range rules {
			if rm, ok := r.(map[string]any); ok {
				f.Rules = append(f.Rules, rm)
			}
		}
	}
	if v, ok := m["validation"].(map[string]any); ok {
		f.Validation.State = ValidationState(getString(v, "state"))
		if errs, ok := v["errors"].([]any); ok {
			for _, e := range errs {
				if s, ok := e.(string); ok {
					f.Validation.Errors = append(f.Validation.Errors, s)
				}
			}
		}
	}
	return f
}

func filterToRaw(f Filter) map[string]any {
	out := map[string]any{
		"advanced_snippet": f.AdvancedSnippet,
		"rules":            f.Rules,
	}
	if f.Validation.State != ValidationStateUnset {
		out["validation"] = map[string]any{
			"state":  string(f.Validation.State),
			"errors": f.Validation.Errors,
		}
	}
	return out
}

func configurationToRaw(cfg map[string]ConfigOption) map[string]any {
	out := make(map[string]any, len(cfg))
	for k, opt := range cfg {
		out[k] = map[string]any{
			"value": opt.Value,
			"label": opt.Label,
			"type":  string(opt.Type),
		}
	}
	return out
}
