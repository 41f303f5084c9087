package transform

import (
	"context"
	"math"
	"time"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

// Derived column names.
const (
	ColWeekday          = "Weekday"
	ColISOWeek          = "ISO_Week"
	ColDaysSinceRun     = "Days_Since_Run"
	ColAmountBand       = "Amount_Band"
	ColAmountPercentile = "Amount_Percentile"
	ColIsOutlier        = "Is_Outlier"
)

// Amount band labels.
const (
	BandLow      = "Low"
	BandMedium   = "Medium"
	BandHigh     = "High"
	BandVeryHigh = "Very High"
)

// DerivedColumnBuilder adds calendar columns from the date column and band,
// percentile and outlier columns from the amount column.
type DerivedColumnBuilder struct {
	dateColumn   string
	amountColumn string
	clock        Clock
}

// NewDerivedColumnBuilder creates a builder. A nil clock reads the wall clock.
func NewDerivedColumnBuilder(schema domain.Schema, clock Clock) *DerivedColumnBuilder {
	if clock == nil {
		clock = SystemClock
	}
	return &DerivedColumnBuilder{
		dateColumn:   schema.Columns.Name(domain.RoleDate),
		amountColumn: schema.Columns.Name(domain.RoleAmount),
		clock:        clock,
	}
}

// Name implements Transform
func (d *DerivedColumnBuilder) Name() string { return "derive" }

// Apply implements Transform
func (d *DerivedColumnBuilder) Apply(_ context.Context, t *domain.Table) (*domain.Table, apperrors.Issues, error) {
	out := t
	if dates := t.Values(d.dateColumn); dates != nil {
		out = d.addCalendar(out, dates)
	}
	if amounts := t.Values(d.amountColumn); amounts != nil {
		out = out.WithColumn(domain.Column{Name: ColAmountBand, Type: domain.TypeCategory}, amountBands(amounts))
		out = out.WithColumn(domain.Column{Name: ColAmountPercentile, Type: domain.TypeNumber}, percentileRanks(amounts))
		out = out.WithColumn(domain.Column{Name: ColIsOutlier, Type: domain.TypeBool}, outliers(amounts))
	}
	if out == t {
		out = t.Clone()
	}
	return out, nil, nil
}

func (d *DerivedColumnBuilder) addCalendar(t *domain.Table, dates []domain.Value) *domain.Table {
	ref := d.clock()
	weekday := make([]domain.Value, len(dates))
	week := make([]domain.Value, len(dates))
	days := make([]domain.Value, len(dates))
	for i, v := range dates {
		if v.Kind != domain.KindDate {
			continue
		}
		weekday[i] = domain.Text(v.Time.Weekday().String())
		_, w := v.Time.ISOWeek()
		week[i] = domain.Number(float64(w))
		days[i] = domain.Number(DaysBetween(v.Time, ref))
	}
	t = t.WithColumn(domain.Column{Name: ColWeekday, Type: domain.TypeCategory}, weekday)
	t = t.WithColumn(domain.Column{Name: ColISOWeek, Type: domain.TypeNumber}, week)
	return t.WithColumn(domain.Column{Name: ColDaysSinceRun, Type: domain.TypeNumber}, days)
}

// DaysBetween returns the whole days from date to ref, rounded toward negative
// infinity.
func DaysBetween(date, ref time.Time) float64 {
	return math.Floor(ref.Sub(date).Hours() / 24)
}

// AmountBand returns the right-closed band of amount, or false for values
// that are not positive.
func AmountBand(amount float64) (string, bool) {
	switch {
	case amount <= 0:
		return "", false
	case amount <= 1000:
		return BandLow, true
	case amount <= 5000:
		return BandMedium, true
	case amount <= 15000:
		return BandHigh, true
	default:
		return BandVeryHigh, true
	}
}

func amountBands(amounts []domain.Value) []domain.Value {
	out := make([]domain.Value, len(amounts))
	for i, v := range amounts {
		if f, ok := v.Float(); ok {
			if band, ok := AmountBand(f); ok {
				out[i] = domain.Text(band)
			}
		}
	}
	return out
}

func percentileRanks(amounts []domain.Value) []domain.Value {
	ranks, ok, n := averageRanks(amounts)
	out := make([]domain.Value, len(amounts))
	for i := range amounts {
		if ok[i] {
			out[i] = domain.Number(ranks[i] / float64(n))
		}
	}
	return out
}

// OutlierBounds returns the 1.5·IQR fences of values.
func OutlierBounds(values []float64) (lower, upper float64) {
	sorted := sortedCopy(values)
	q1 := percentile(sorted, 0.25)
	q3 := percentile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

func outliers(amounts []domain.Value) []domain.Value {
	out := make([]domain.Value, len(amounts))
	nums := numbers(amounts)
	if len(nums) == 0 {
		return out
	}
	lower, upper := OutlierBounds(nums)
	for i, v := range amounts {
		if f, ok := v.Float(); ok {
			out[i] = domain.Bool(f < lower || f > upper)
		}
	}
	return out
}
