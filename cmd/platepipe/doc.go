// Command platepipe plans and executes the plate image processing pipeline:
// it ingests the acquisition input table, partitions records into task
// groups per stage, renders the per-group manifests, and drives the external
// tool over the resulting units.
package main
