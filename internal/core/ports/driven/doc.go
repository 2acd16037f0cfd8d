// Package driven declares the ports the sync runtime calls outward through:
// the SourceAdapter contract every connector implements and the registry
// that resolves a service_type string to one.
package driven
