// Package services defines the shared error taxonomy and context plumbing used
// by every pipeline component.
//
// Sentinel errors mark the broad failure class (configuration, validation,
// missing data, external tool, transient) and Wrap attaches stage/operation
// context while preserving the marker for errors.Is classification. The
// context helpers carry the stage name, group key, and correlation ID so
// loggers and error messages can always name the exact unit that failed.
package services
