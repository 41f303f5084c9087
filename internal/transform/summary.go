package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"etlcli/pkg/contracts/domain"
)

// Executive summary metric labels.
const (
	MetricTotalRecords     = "Total Records"
	MetricPeriod           = "Data Period"
	MetricDepartments      = "Total Departments"
	MetricTotalAmount      = "Total Amount"
	MetricMeanAmount       = "Mean Amount"
	MetricLargest          = "Largest Transaction"
	MetricSmallest         = "Smallest Transaction"
	MetricTopDepartment    = "Department with Highest Volume"
	MetricCommonStatus     = "Most Common Status"
	MetricOutliers         = "Outlier Transactions"
	MetricTop3Concentrated = "Top 3 Department Concentration"
)

// Summarizer derives the summary sheets of a processed table.
type Summarizer struct {
	id, date, department, amount, status string
}

// NewSummarizer creates a summarizer bound to the schema's column names
func NewSummarizer(schema domain.Schema) *Summarizer {
	return &Summarizer{
		id:         schema.Columns.Name(domain.RoleID),
		date:       schema.Columns.Name(domain.RoleDate),
		department: schema.Columns.Name(domain.RoleDepartment),
		amount:     schema.Columns.Name(domain.RoleAmount),
		status:     schema.Columns.Name(domain.RoleStatus),
	}
}

// Departments returns one row per department sorted by name. Shares are
// percentages of the overall amount total.
func (s *Summarizer) Departments(t *domain.Table) []domain.DepartmentSummary {
	type acc struct {
		amounts  []float64
		ids      int
		outliers int
	}
	groups := map[string]*acc{}
	depts := t.Values(s.department)
	ids := t.Values(s.id)
	amounts := t.Values(s.amount)
	flags := t.Values(ColIsOutlier)

	for r, d := range depts {
		key, ok := groupKey(d)
		if !ok {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &acc{}
			groups[key] = g
		}
		if f, ok := cell(amounts, r).Float(); ok {
			g.amounts = append(g.amounts, f)
		}
		if !cell(ids, r).IsNull() {
			g.ids++
		}
		if v := cell(flags, r); v.Kind == domain.KindBool && v.Bool {
			g.outliers++
		}
	}

	total := sum(numbers(amounts))
	out := make([]domain.DepartmentSummary, 0, len(groups))
	for name, g := range groups {
		row := domain.DepartmentSummary{
			Department: name,
			Count:      len(g.amounts),
			Sum:        round2(sum(g.amounts)),
			Mean:       round2(mean(g.amounts)),
			IDCount:    g.ids,
			Outliers:   g.outliers,
		}
		lo, hi := minMax(g.amounts)
		row.Min, row.Max = round2(lo), round2(hi)
		if total != 0 {
			row.SharePct = round2(sum(g.amounts) / total * 100)
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })

	sums := make([]float64, len(out))
	for i := range out {
		sums[i] = out[i].Sum
	}
	for i, rk := range denseRankFloatsDesc(sums) {
		out[i].RankBySum = rk
	}
	return out
}

// Monthly returns one row per (year, month) of the date column in calendar
// order. It is empty when the table has no dates.
func (s *Summarizer) Monthly(t *domain.Table) []domain.MonthlySummary {
	type key struct{ year, month int }
	type acc struct {
		rows    int
		amounts []float64
		depts   map[string]struct{}
	}
	groups := map[key]*acc{}
	dates := t.Values(s.date)
	amounts := t.Values(s.amount)
	depts := t.Values(s.department)

	for r, d := range dates {
		if d.Kind != domain.KindDate {
			continue
		}
		k := key{d.Time.Year(), int(d.Time.Month())}
		g := groups[k]
		if g == nil {
			g = &acc{depts: map[string]struct{}{}}
			groups[k] = g
		}
		g.rows++
		if f, ok := cell(amounts, r).Float(); ok {
			g.amounts = append(g.amounts, f)
		}
		if name, ok := groupKey(cell(depts, r)); ok {
			g.depts[name] = struct{}{}
		}
	}

	keys := make([]key, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].year != keys[j].year {
			return keys[i].year < keys[j].year
		}
		return keys[i].month < keys[j].month
	})

	out := make([]domain.MonthlySummary, len(keys))
	rawSums := make([]float64, len(keys))
	for i, k := range keys {
		g := groups[k]
		rawSums[i] = sum(g.amounts)
		out[i] = domain.MonthlySummary{
			Year:        k.year,
			Month:       k.month,
			Count:       g.rows,
			Sum:         round2(rawSums[i]),
			Mean:        round2(mean(g.amounts)),
			Departments: len(g.depts),
		}
		if i > 0 && rawSums[i-1] != 0 {
			growth := round2((rawSums[i] - rawSums[i-1]) / rawSums[i-1] * 100)
			out[i].GrowthPct = &growth
		}
		if i >= 2 {
			ma := round2(mean(rawSums[i-2 : i+1]))
			out[i].MovingAverage3 = &ma
		}
	}
	return out
}

// Executive returns the key/value lines of the executive summary.
func (s *Summarizer) Executive(t *domain.Table) []domain.SummaryItem {
	amounts := numbers(t.Values(s.amount))
	depts := s.Departments(t)

	items := []domain.SummaryItem{
		{Metric: MetricTotalRecords, Value: strconv.Itoa(t.Len())},
		{Metric: MetricPeriod, Value: s.period(t)},
		{Metric: MetricDepartments, Value: strconv.Itoa(len(depts))},
	}

	lo, hi := minMax(amounts)
	items = append(items,
		domain.SummaryItem{Metric: MetricTotalAmount, Value: FormatMoney(sum(amounts))},
		domain.SummaryItem{Metric: MetricMeanAmount, Value: FormatMoney(mean(amounts))},
		domain.SummaryItem{Metric: MetricLargest, Value: FormatMoney(hi)},
		domain.SummaryItem{Metric: MetricSmallest, Value: FormatMoney(lo)},
		domain.SummaryItem{Metric: MetricTopDepartment, Value: topDepartment(depts)},
		domain.SummaryItem{Metric: MetricCommonStatus, Value: mode(t.Values(s.status))},
		domain.SummaryItem{Metric: MetricOutliers, Value: strconv.Itoa(countTrue(t.Values(ColIsOutlier)))},
		domain.SummaryItem{Metric: MetricTop3Concentrated, Value: fmt.Sprintf("%.1f%%", round1(topShare(depts, 3)))},
	)
	return items
}

func (s *Summarizer) period(t *domain.Table) string {
	var first, last time.Time
	for _, d := range t.Values(s.date) {
		if d.Kind != domain.KindDate {
			continue
		}
		if first.IsZero() || d.Time.Before(first) {
			first = d.Time
		}
		if last.IsZero() || d.Time.After(last) {
			last = d.Time
		}
	}
	if first.IsZero() {
		return ""
	}
	return first.Format(domain.DateLayout) + " to " + last.Format(domain.DateLayout)
}

// topDepartment returns the first department, by name, with the largest sum.
func topDepartment(depts []domain.DepartmentSummary) string {
	best := -1
	for i, d := range depts {
		if best < 0 || d.Sum > depts[best].Sum {
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return depts[best].Department
}

// topShare returns the percentage of the total held by the n largest departments.
func topShare(depts []domain.DepartmentSummary, n int) float64 {
	sums := make([]float64, len(depts))
	total := 0.0
	for i, d := range depts {
		sums[i] = d.Sum
		total += d.Sum
	}
	if total == 0 {
		return 0
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sums)))
	if n > len(sums) {
		n = len(sums)
	}
	return sum(sums[:n]) / total * 100
}

// mode returns the most frequent non-null value, the smallest one on ties.
func mode(vals []domain.Value) string {
	counts := map[string]int{}
	for _, v := range vals {
		if !v.IsNull() {
			counts[v.String()]++
		}
	}
	best, bestN := "", 0
	for k, n := range counts {
		if n > bestN || (n == bestN && k < best) {
			best, bestN = k, n
		}
	}
	return best
}

func countTrue(vals []domain.Value) int {
	n := 0
	for _, v := range vals {
		if v.Kind == domain.KindBool && v.Bool {
			n++
		}
	}
	return n
}

func cell(vals []domain.Value, r int) domain.Value {
	if r < 0 || r >= len(vals) {
		return domain.Null
	}
	return vals[r]
}

// FormatMoney renders v as "R$ 1,234.56".
func FormatMoney(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "R$ " + b.String() + "." + frac
}
