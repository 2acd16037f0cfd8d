// Package driving defines the interface external actors (the CLI) use to
// drive the connector service. Implementations live in internal/core/services.
package driving
