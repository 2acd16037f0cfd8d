package domain

import "time"

// ConfigValueType names the primitive kind of a configuration option.
type ConfigValueType string

const (
	ConfigValueBool   ConfigValueType = "bool"
	ConfigValueString ConfigValueType = "str"
	ConfigValueInt    ConfigValueType = "int"
)

// ConfigOption is one entry of an adapter's default configuration descriptor:
// a mapping from option name to {value, label, type}.
type ConfigOption struct {
	Key   string          `json:"-"`
	Value any             `json:"value"`
	Label string          `json:"label"`
	Type  ConfigValueType `json:"type"`
}

// Configuration is the persisted form of a Connector's configuration: a
// mapping from option name to its descriptor.
type Configuration map[string]ConfigOption

// IsEmpty reports whether no configuration options are set.
func (c Configuration) IsEmpty() bool {
	return len(c) == 0
}

// Value returns the raw value for key, or nil if absent.
func (c Configuration) Value(key string) any {
	opt, ok := c[key]
	if !ok {
		return nil
	}
	return opt.Value
}

// Scheduling is the connector's cron-like sync schedule.
type Scheduling struct {
	Enabled  bool   `json:"enabled"`
	Interval string `json:"interval"`
}

// nowFunc is overridable in tests; production code always uses time.Now.
var nowFunc = time.Now
