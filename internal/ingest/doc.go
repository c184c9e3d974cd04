// Package ingest turns external inputs into validated records: the CSV input
// table listing acquired files, and directory scans that recover metadata for
// derived artifacts from their filenames.
package ingest
