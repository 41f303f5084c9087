package transform

import (
	"context"
	"sort"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

// Group statistic and rank column names.
const (
	ColDeptCount  = "Dept_Count"
	ColDeptSum    = "Dept_Sum"
	ColDeptMean   = "Dept_Mean"
	ColDeptStdDev = "Dept_StdDev"
	ColDeptMin    = "Dept_Min"
	ColDeptMax    = "Dept_Max"
	ColAmountRank = "Amount_Rank"
)

// Aggregator broadcasts per-department amount statistics onto every row and
// ranks amounts.
type Aggregator struct {
	departmentColumn string
	amountColumn     string
}

// NewAggregator creates an aggregator for schema
func NewAggregator(schema domain.Schema) *Aggregator {
	return &Aggregator{
		departmentColumn: schema.Columns.Name(domain.RoleDepartment),
		amountColumn:     schema.Columns.Name(domain.RoleAmount),
	}
}

// Name implements Transform
func (a *Aggregator) Name() string { return "aggregate" }

// Apply implements Transform
func (a *Aggregator) Apply(_ context.Context, t *domain.Table) (*domain.Table, apperrors.Issues, error) {
	amounts := t.Values(a.amountColumn)
	if amounts == nil {
		return t.Clone(), nil, nil
	}
	out := t

	if t.Has(a.departmentColumn) {
		stats := GroupStats(t, a.departmentColumn, a.amountColumn)
		byName := make(map[string]domain.DepartmentStats, len(stats))
		for _, s := range stats {
			byName[s.Department] = s
		}

		n := t.Len()
		cols := map[string][]domain.Value{}
		names := []string{ColDeptCount, ColDeptSum, ColDeptMean, ColDeptStdDev, ColDeptMin, ColDeptMax}
		for _, name := range names {
			cols[name] = make([]domain.Value, n)
		}
		for r, dept := range t.Values(a.departmentColumn) {
			key, ok := groupKey(dept)
			if !ok {
				continue
			}
			s := byName[key]
			cols[ColDeptCount][r] = domain.Number(float64(s.Count))
			cols[ColDeptSum][r] = domain.Number(s.Sum)
			if s.Count == 0 {
				continue
			}
			cols[ColDeptMean][r] = domain.Number(s.Mean)
			if s.StdDev != nil {
				cols[ColDeptStdDev][r] = domain.Number(*s.StdDev)
			}
			cols[ColDeptMin][r] = domain.Number(s.Min)
			cols[ColDeptMax][r] = domain.Number(s.Max)
		}
		for _, name := range names {
			out = out.WithColumn(domain.Column{Name: name, Type: domain.TypeNumber}, cols[name])
		}
	}

	ranks := denseRankDesc(amounts)
	rankCol := make([]domain.Value, len(ranks))
	for i, rk := range ranks {
		if rk > 0 {
			rankCol[i] = domain.Number(float64(rk))
		}
	}
	out = out.WithColumn(domain.Column{Name: ColAmountRank, Type: domain.TypeNumber}, rankCol)
	return out, nil, nil
}

// groupKey returns the grouping label of a department cell; nulls form no group.
func groupKey(v domain.Value) (string, bool) {
	if v.IsNull() {
		return "", false
	}
	return v.String(), true
}

// GroupStats computes the amount statistics of every department of t, sorted
// by department name. Values are rounded to two decimals.
func GroupStats(t *domain.Table, departmentColumn, amountColumn string) []domain.DepartmentStats {
	groups := make(map[string][]float64)
	depts := t.Values(departmentColumn)
	amounts := t.Values(amountColumn)
	for r, dept := range depts {
		key, ok := groupKey(dept)
		if !ok {
			continue
		}
		if _, seen := groups[key]; !seen {
			groups[key] = nil
		}
		if r < len(amounts) {
			if f, ok := amounts[r].Float(); ok {
				groups[key] = append(groups[key], f)
			}
		}
	}

	out := make([]domain.DepartmentStats, 0, len(groups))
	for name, values := range groups {
		s := domain.DepartmentStats{Department: name, Count: len(values)}
		if len(values) > 0 {
			lo, hi := minMax(values)
			s.Sum = round2(sum(values))
			s.Mean = round2(mean(values))
			s.Min = round2(lo)
			s.Max = round2(hi)
			if sd, ok := sampleStdDev(values); ok {
				sd = round2(sd)
				s.StdDev = &sd
			}
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}
