package domain

// Feature names understood by Features.Enabled.
const (
	FeatureBasicRulesNew    = "basic_rules_new"
	FeatureAdvancedRulesNew = "advanced_rules_new"
	FeatureBasicRulesOld    = "basic_rules_old"
	FeatureAdvancedRulesOld = "advanced_rules_old"
)

// Features is the nested feature-flag lookup surface carried by a Connector.
// Lookups are legacy-first: new nested keys and old flat keys are both
// consulted.
type Features map[string]any

// Enabled reports whether the named feature is enabled. Unknown feature
// names return false.
func (f Features) Enabled(name string) bool {
	switch name {
	case FeatureBasicRulesNew:
		return f.nestedBool([]string{"sync_rules", "basic", "enabled"})
	case FeatureAdvancedRulesNew:
		return f.nestedBool([]string{"sync_rules", "advanced", "enabled"})
	case FeatureBasicRulesOld:
		return f.flatBool("filtering_rules")
	case FeatureAdvancedRulesOld:
		return f.flatBool("filtering_advanced_config")
	default:
		return false
	}
}

// SyncRulesEnabled is the logical OR over all four basic/advanced,
// old/new feature lookups.
func (f Features) SyncRulesEnabled() bool {
	return f.Enabled(FeatureBasicRulesNew) ||
		f.Enabled(FeatureBasicRulesOld) ||
		f.Enabled(FeatureAdvancedRulesNew) ||
		f.Enabled(FeatureAdvancedRulesOld)
}

func (f Features) flatBool(key string) bool {
	v, _ := f[key].(bool)
	return v
}

func (f Features) nestedBool(keys []string) bool {
	var cur any = map[string]any(f)
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return false
		}
		cur, ok = m[k]
		if !ok {
			return false
		}
	}
	v, _ := cur.(bool)
	return v
}

// PipelineDefaultName is the default ingestion pipeline name.
const PipelineDefaultName = "ent-search-generic-ingestion"

// Pipeline is the mapping of post-processing flags sent downstream to the
// ingestion layer. Missing keys fall back to PipelineDefaults().
type Pipeline map[string]any

// PipelineDefaults returns the built-in pipeline defaults.
func PipelineDefaults() Pipeline {
	return Pipeline{
		"name":                   PipelineDefaultName,
		"extract_binary_content": true,
		"reduce_whitespace":      true,
		"run_ml_inference":       true,
	}
}

// NewPipeline merges data over the defined defaults: caller values override,
// missing keys fall back to the default.
func NewPipeline(data map[string]any) Pipeline {
	merged := PipelineDefaults()
	for k, v := range data {
		merged[k] = v
	}
	return merged
}
