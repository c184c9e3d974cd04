// Package join correlates fine-granularity Groups with coarse-granularity
// Groups produced by an earlier stage.
//
// The join is a mandatory inner join with cardinality exactly one on the
// coarse side: a well's images must find exactly one matching plate-level
// correction group. A missing match is an error naming the projected key, an
// ambiguous match indicates a key-design defect upstream, and neither is ever
// silently resolved with defaults.
package join
