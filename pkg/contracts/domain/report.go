package domain

import "time"

// DepartmentStats are the amount statistics of one department group.
// StdDev is nil for groups with fewer than two amounts.
type DepartmentStats struct {
	Department string   `json:"department"`
	Count      int      `json:"count"`
	Sum        float64  `json:"sum"`
	Mean       float64  `json:"mean"`
	StdDev     *float64 `json:"stddev,omitempty"`
	Min        float64  `json:"min"`
	Max        float64  `json:"max"`
}

// DepartmentSummary is one row of the department summary sheet.
type DepartmentSummary struct {
	Department string  `json:"department"`
	Count      int     `json:"count"`
	Sum        float64 `json:"sum"`
	Mean       float64 `json:"mean"`
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	IDCount    int     `json:"id_count"`
	Outliers   int     `json:"outliers"`
	SharePct   float64 `json:"share_pct"`
	RankBySum  int     `json:"rank_by_sum"`
}

// MonthlySummary is one row of the monthly summary sheet. Growth and moving
// averages are nil where there is not enough history.
type MonthlySummary struct {
	Year           int      `json:"year"`
	Month          int      `json:"month"`
	Count          int      `json:"count"`
	Sum            float64  `json:"sum"`
	Mean           float64  `json:"mean"`
	Departments    int      `json:"departments"`
	GrowthPct      *float64 `json:"growth_pct,omitempty"`
	MovingAverage3 *float64 `json:"moving_average_3,omitempty"`
}

// SummaryItem is one key/value line of the executive summary.
type SummaryItem struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// NumericDescription mirrors a describe() over one numeric column.
type NumericDescription struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	P25   float64 `json:"25%"`
	P50   float64 `json:"50%"`
	P75   float64 `json:"75%"`
	Max   float64 `json:"max"`
}

// QualityReport is the data-quality document written after a run.
type QualityReport struct {
	RunID         string                        `json:"run_id"`
	ReferenceTime time.Time                     `json:"reference_time"`
	TotalRecords  int                           `json:"total_records"`
	TotalColumns  int                           `json:"total_columns"`
	ColumnTypes   map[string]string             `json:"column_types"`
	NullCounts    map[string]int                `json:"null_counts"`
	DuplicateRows int                           `json:"duplicate_rows"`
	Numeric       map[string]NumericDescription `json:"numeric_summary"`
}

// KPIs are the monitored indicators of a processed table.
type KPIs struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalAmount       float64 `json:"total_amount"`
	MeanAmount        float64 `json:"mean_amount"`
	TransactionsToday int     `json:"transactions_today"`
	ActiveDepartments int     `json:"active_departments"`
	Outliers          int     `json:"outliers"`
}

// Values returns the KPIs keyed by their configuration names.
func (k KPIs) Values() map[string]float64 {
	return map[string]float64{
		KPITotalTransactions: float64(k.TotalTransactions),
		KPITotalAmount:       k.TotalAmount,
		KPIMeanAmount:        k.MeanAmount,
		KPITransactionsToday: float64(k.TransactionsToday),
		KPIActiveDepartments: float64(k.ActiveDepartments),
		KPIOutliers:          float64(k.Outliers),
	}
}

// KPI names as used in threshold configuration.
const (
	KPITotalTransactions = "total_transactions"
	KPITotalAmount       = "total_amount"
	KPIMeanAmount        = "mean_amount"
	KPITransactionsToday = "transactions_today"
	KPIActiveDepartments = "active_departments"
	KPIOutliers          = "outliers"
)

// KPINames lists the KPIs in report order.
var KPINames = []string{
	KPITotalTransactions, KPITotalAmount, KPIMeanAmount,
	KPITransactionsToday, KPIActiveDepartments, KPIOutliers,
}

// Threshold bounds one KPI. A nil side is not checked.
type Threshold struct {
	Min *float64 `yaml:"min" json:"min,omitempty"`
	Max *float64 `yaml:"max" json:"max,omitempty"`
}

// AlertKind tells which side of a threshold was crossed.
type AlertKind string

const (
	AlertLow  AlertKind = "LOW"
	AlertHigh AlertKind = "HIGH"
)

// Alert is a KPI outside its configured bounds.
type Alert struct {
	KPI       string    `json:"kpi"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Kind      AlertKind `json:"kind"`
}

// Result is everything a run produces for the Load phase.
type Result struct {
	RunID         string
	ReferenceTime time.Time
	Table         *Table
	Groups        []DepartmentStats
	Departments   []DepartmentSummary
	Monthly       []MonthlySummary
	Executive     []SummaryItem
	Quality       QualityReport
	KPIs          KPIs
	Alerts        []Alert
}
