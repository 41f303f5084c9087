// Package transform holds the table passes of the pipeline: validation,
// cleaning, type coercion, derived columns, group aggregation and category
// standardization, plus the summaries, quality report and KPI checks computed
// from a processed table.
//
// Every pass returns a new table and leaves its input untouched.
package transform
