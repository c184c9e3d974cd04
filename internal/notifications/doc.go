// Package notifications delivers run milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Long runs against a full plate can take hours; a push when the
// run finishes or a unit fails saves the operator from polling status.
//
// Extend this package if you need alternative transports; callers depend only
// on the Service interface.
package notifications
