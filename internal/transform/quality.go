package transform

import (
	"time"

	"etlcli/pkg/contracts/domain"
)

// BuildQualityReport describes t after processing.
func BuildQualityReport(runID string, ref time.Time, t *domain.Table) domain.QualityReport {
	report := domain.QualityReport{
		RunID:         runID,
		ReferenceTime: ref,
		TotalRecords:  t.Len(),
		TotalColumns:  len(t.Columns),
		ColumnTypes:   make(map[string]string, len(t.Columns)),
		NullCounts:    make(map[string]int, len(t.Columns)),
		DuplicateRows: countDuplicates(t),
		Numeric:       make(map[string]domain.NumericDescription),
	}
	for _, col := range t.Columns {
		report.ColumnTypes[col.Name] = col.Type.String()
		vals := t.Values(col.Name)
		nulls := 0
		for _, v := range vals {
			if v.IsNull() {
				nulls++
			}
		}
		report.NullCounts[col.Name] = nulls
		if col.Type == domain.TypeNumber {
			report.Numeric[col.Name] = Describe(numbers(vals))
		}
	}
	return report
}

// Describe returns count, mean, sample std, min, quartiles and max of values.
// Std is 0 for fewer than two values.
func Describe(values []float64) domain.NumericDescription {
	d := domain.NumericDescription{Count: len(values)}
	if len(values) == 0 {
		return d
	}
	sorted := sortedCopy(values)
	d.Mean = mean(values)
	d.Std, _ = sampleStdDev(values)
	d.Min = sorted[0]
	d.P25 = percentile(sorted, 0.25)
	d.P50 = percentile(sorted, 0.50)
	d.P75 = percentile(sorted, 0.75)
	d.Max = sorted[len(sorted)-1]
	return d
}
