// Package types defines the dataset variants, load results, configuration,
// and standard errors shared by the pantry loader, its strategies, and the
// CLI.
//
// A successful load yields a Dataset, which is one of a closed set of
// shapes: *Table (records with named columns), *Mapping, *Sequence, or
// *Scalar. Callers switch on Dataset.Kind rather than probing for
// attributes.
package types
