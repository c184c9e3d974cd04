// Package record defines the immutable metadata unit that flows through the
// pipeline.
//
// A Record pairs one file reference with a fixed metadata schema (batch,
// plate, well, site, arm, optional cycle and channel) plus the ordered
// channel list carried by the file itself. Metadata is set once at ingestion;
// moving between stages always derives new Records rather than mutating
// existing ones.
package record
