package exporter

import (
	"strconv"

	"etlcli/pkg/contracts/domain"
)

// formatFloat formats a float64 with the fewest digits that round-trip
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// formatDate keeps the time of day only when there is one.
func formatDate(v domain.Value) string {
	t := v.Time
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(domain.DateLayout)
	}
	return t.Format(domain.DateTimeLayout)
}

func formatValue(v domain.Value) string {
	switch v.Kind {
	case domain.KindText:
		return v.Str
	case domain.KindNumber:
		return formatFloat(v.Num)
	case domain.KindDate:
		return formatDate(v)
	case domain.KindBool:
		return formatBool(v.Bool)
	default:
		return ""
	}
}
