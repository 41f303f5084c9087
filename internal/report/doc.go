/*
Package report lays out the formatted report workbook and the VBA module
that automates the same formatting inside Excel.

The workbook holds four sheets:

	Dashboard  title banner, KPI tiles and threshold alerts
	Data       the typed table with header styling
	Summary    per-department totals in money format
	Charts     department totals with a native column chart

Both outputs are staged next to their destination and renamed only after
they were written completely.
*/
package report
