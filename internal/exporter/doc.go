// Package exporter writes run outputs that are not workbooks.
//
// CSVSink publishes the processed table as CSV with a UTF-8 BOM so Excel
// detects the encoding. QualityReportSink publishes the data-quality report
// as JSON. Both stage into a temporary file and are published by the Load
// phase's transaction.
package exporter
