// Package grouping partitions a finite Record set into Groups by a composite
// key of named metadata fields.
//
// The output is an exact partition: every valid input Record lands in exactly
// one Group, none are dropped or duplicated. Records missing a key field are
// reported individually rather than silently skipped. Group members and the
// groups themselves are deterministically ordered so downstream manifests are
// byte-stable regardless of input arrival order.
package grouping
