package transform

import (
	"time"

	"etlcli/pkg/contracts/domain"
)

// ComputeKPIs evaluates the monitored indicators of t. "Today" is the calendar
// day of ref in ref's location.
func ComputeKPIs(schema domain.Schema, t *domain.Table, ref time.Time) domain.KPIs {
	amounts := numbers(t.Values(schema.Columns.Name(domain.RoleAmount)))
	k := domain.KPIs{
		TotalTransactions: t.Len(),
		TotalAmount:       round2(sum(amounts)),
		MeanAmount:        round2(mean(amounts)),
		Outliers:          countTrue(t.Values(ColIsOutlier)),
	}

	y, m, d := ref.Date()
	for _, v := range t.Values(schema.Columns.Name(domain.RoleDate)) {
		if v.Kind != domain.KindDate {
			continue
		}
		vy, vm, vd := v.Time.In(ref.Location()).Date()
		if vy == y && vm == m && vd == d {
			k.TransactionsToday++
		}
	}

	active := map[string]struct{}{}
	for _, v := range t.Values(schema.Columns.Name(domain.RoleDepartment)) {
		if key, ok := groupKey(v); ok {
			active[key] = struct{}{}
		}
	}
	k.ActiveDepartments = len(active)
	return k
}

// CheckThresholds returns an alert for every KPI outside its bounds, in
// domain.KPINames order with the LOW check first.
func CheckThresholds(k domain.KPIs, thresholds map[string]domain.Threshold) []domain.Alert {
	values := k.Values()
	var alerts []domain.Alert
	for _, name := range domain.KPINames {
		th, ok := thresholds[name]
		if !ok {
			continue
		}
		v := values[name]
		if th.Min != nil && v < *th.Min {
			alerts = append(alerts, domain.Alert{KPI: name, Value: v, Threshold: *th.Min, Kind: domain.AlertLow})
		}
		if th.Max != nil && v > *th.Max {
			alerts = append(alerts, domain.Alert{KPI: name, Value: v, Threshold: *th.Max, Kind: domain.AlertHigh})
		}
	}
	return alerts
}
