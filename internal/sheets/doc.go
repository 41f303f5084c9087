// Package sheets reads tables from .xlsx and .csv files and writes styled
// workbooks with excelize.
package sheets
