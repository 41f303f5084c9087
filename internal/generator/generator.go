// Package generator produces a reproducible synthetic dataset of
// departmental transactions.
package generator

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"etlcli/internal/config"
	"etlcli/internal/files"
	"etlcli/internal/sheets"
	"etlcli/pkg/contracts/domain"
)

var (
	Departments = []string{
		"Recursos Humanos", "Financeiro", "Tecnologia da Informação",
		"Compras e Licitações", "Planejamento", "Jurídico",
		"Comunicação", "Infraestrutura", "Saúde", "Educação",
	}
	Categories = []string{
		"Material de Escritório", "Equipamentos", "Serviços",
		"Manutenção", "Capacitação", "Combustível",
		"Alimentação", "Limpeza", "Segurança", "Consultoria",
	}
	TransactionTypes = []string{"Despesa", "Receita", "Transferência"}
	Statuses         = []string{"Aprovado", "Pendente", "Rejeitado", "Em Análise"}
	Suppliers        = []string{
		"Empresa Alpha Ltda", "Beta Serviços SA", "Gamma Tecnologia",
		"Delta Suprimentos", "Epsilon Consultoria", "Zeta Equipamentos",
		"Eta Manutenção", "Theta Sistemas", "Iota Materiais", "Kappa Serviços",
	}
	Priorities = []string{"Alta", "Média", "Baixa"}
)

// Column names of the generated table.
const (
	ColID              = "ID"
	ColDate            = "Date"
	ColDepartment      = "Department"
	ColCategory        = "Category"
	ColTransactionType = "Transaction_Type"
	ColAmount          = "Amount"
	ColSupplier        = "Supplier"
	ColStatus          = "Status"
	ColDescription     = "Description"
	ColMonth           = "Month"
	ColYear            = "Year"
	ColQuarter         = "Quarter"
	ColOwner           = "Owner"
	ColCostCenter      = "Cost_Center"
	ColPriority        = "Priority"
	ColCumulative      = "Cumulative_Amount"
	ColDeptMonthlyMean = "Dept_Monthly_Mean"
)

// Options control the generated data.
type Options struct {
	Rows int
	Seed uint64
	End  time.Time // latest possible date
	Days int       // span of dates before End
}

// DefaultOptions are 1000 rows over the two years up to today, seed 42.
func DefaultOptions() Options {
	return Options{Rows: 1000, Seed: 42, End: time.Now().UTC().Truncate(24 * time.Hour), Days: 730}
}

func columns() []domain.Column {
	return []domain.Column{
		{Name: ColID, Type: domain.TypeText},
		{Name: ColDate, Type: domain.TypeDate},
		{Name: ColDepartment, Type: domain.TypeText},
		{Name: ColCategory, Type: domain.TypeText},
		{Name: ColTransactionType, Type: domain.TypeText},
		{Name: ColAmount, Type: domain.TypeNumber},
		{Name: ColSupplier, Type: domain.TypeText},
		{Name: ColStatus, Type: domain.TypeText},
		{Name: ColDescription, Type: domain.TypeText},
		{Name: ColMonth, Type: domain.TypeNumber},
		{Name: ColYear, Type: domain.TypeNumber},
		{Name: ColQuarter, Type: domain.TypeText},
		{Name: ColOwner, Type: domain.TypeText},
		{Name: ColCostCenter, Type: domain.TypeText},
		{Name: ColPriority, Type: domain.TypeText},
		{Name: ColCumulative, Type: domain.TypeNumber},
		{Name: ColDeptMonthlyMean, Type: domain.TypeNumber},
	}
}

// Generate builds opts.Rows transactions. The same options always give the
// same table.
func Generate(opts Options) *domain.Table {
	if opts.Days <= 0 {
		opts.Days = 730
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	pick := func(list []string) string { return list[rng.IntN(len(list))] }
	start := opts.End.AddDate(0, 0, -opts.Days)

	t := domain.NewTable(columns()...)
	for i := 0; i < opts.Rows; i++ {
		date := start.AddDate(0, 0, rng.IntN(opts.Days+1))
		kind := pick(TransactionTypes)
		var amount float64
		if kind == "Receita" {
			amount = uniform(rng, 5000, 50000)
		} else {
			amount = uniform(rng, 100, 15000)
		}

		t.Append(domain.Row{
			domain.Text(fmt.Sprintf("TXN%04d", i+1)),
			domain.Date(date),
			domain.Text(pick(Departments)),
			domain.Text(pick(Categories)),
			domain.Text(kind),
			domain.Number(amount),
			domain.Text(pick(Suppliers)),
			domain.Text(pick(Statuses)),
			domain.Text(fmt.Sprintf("Transação %d - %s", i+1, pick(Categories))),
			domain.Number(float64(date.Month())),
			domain.Number(float64(date.Year())),
			domain.Text(fmt.Sprintf("Q%d", (int(date.Month())-1)/3+1)),
			domain.Text(fmt.Sprintf("Funcionário %d", rng.IntN(50)+1)),
			domain.Text(fmt.Sprintf("CC%d", rng.IntN(9000)+1000)),
			domain.Text(pick(Priorities)),
			domain.Null,
			domain.Null,
		})
	}
	fillCalculated(t)
	return t
}

// uniform returns a value in [lo, hi] rounded to cents.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return round2(lo + rng.Float64()*(hi-lo))
}

// fillCalculated sets the running total per department in row order and
// the mean per department and month.
func fillCalculated(t *domain.Table) {
	dept, amount, month := t.Index(ColDepartment), t.Index(ColAmount), t.Index(ColMonth)
	cum, mean := t.Index(ColCumulative), t.Index(ColDeptMonthlyMean)

	type key struct {
		dept  string
		month float64
	}
	running := map[string]float64{}
	sums := map[key]float64{}
	counts := map[key]int{}
	for _, row := range t.Rows {
		d, a := row[dept].Str, row[amount].Num
		running[d] += a
		row[cum] = domain.Number(round2(running[d]))
		k := key{d, row[month].Num}
		sums[k] += a
		counts[k]++
	}
	for _, row := range t.Rows {
		k := key{row[dept].Str, row[month].Num}
		row[mean] = domain.Number(round2(sums[k] / float64(counts[k])))
	}
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// DepartmentTotals is one row of the generated department summary.
type DepartmentTotals struct {
	Department string
	Total      float64
	Mean       float64
	Count      int
}

// MonthlyTotals is one row of the generated monthly summary.
type MonthlyTotals struct {
	Year  int
	Month int
	Total float64
	Count int
}

// Summaries groups t by department (sorted by name) and by year and month
// (chronological).
func Summaries(t *domain.Table) ([]DepartmentTotals, []MonthlyTotals) {
	dept, amount := t.Index(ColDepartment), t.Index(ColAmount)
	year, month := t.Index(ColYear), t.Index(ColMonth)

	byDept := map[string]*DepartmentTotals{}
	type ym struct{ y, m int }
	byMonth := map[ym]*MonthlyTotals{}
	for _, row := range t.Rows {
		d := row[dept].Str
		if byDept[d] == nil {
			byDept[d] = &DepartmentTotals{Department: d}
		}
		byDept[d].Total += row[amount].Num
		byDept[d].Count++

		k := ym{int(row[year].Num), int(row[month].Num)}
		if byMonth[k] == nil {
			byMonth[k] = &MonthlyTotals{Year: k.y, Month: k.m}
		}
		byMonth[k].Total += row[amount].Num
		byMonth[k].Count++
	}

	depts := make([]DepartmentTotals, 0, len(byDept))
	for _, d := range byDept {
		d.Mean = round2(d.Total / float64(d.Count))
		d.Total = round2(d.Total)
		depts = append(depts, *d)
	}
	sort.Slice(depts, func(i, j int) bool { return depts[i].Department < depts[j].Department })

	months := make([]MonthlyTotals, 0, len(byMonth))
	for _, m := range byMonth {
		m.Total = round2(m.Total)
		months = append(months, *m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i].Year != months[j].Year {
			return months[i].Year < months[j].Year
		}
		return months[i].Month < months[j].Month
	})
	return depts, months
}

// WriteWorkbook writes the data sheet and the two summary sheets.
func WriteWorkbook(w *sheets.Writer, t *domain.Table) error {
	if err := w.WriteTable(config.DefaultSheetName, t); err != nil {
		return err
	}

	depts, months := Summaries(t)
	deptRows := make([][]any, len(depts))
	for i, d := range depts {
		deptRows[i] = []any{d.Department, d.Total, d.Mean, d.Count, d.Count}
	}
	if err := w.WriteRows(config.SheetDepartmentSummary,
		[]string{"Department", "Total_Amount", "Mean_Amount", "Count_Amount", "Total_Transactions"}, deptRows); err != nil {
		return err
	}

	monthRows := make([][]any, len(months))
	for i, m := range months {
		monthRows[i] = []any{m.Year, m.Month, m.Total, m.Count}
	}
	return w.WriteRows(config.SheetMonthlySummary,
		[]string{"Year", "Month", "Total_Amount", "Total_Transactions"}, monthRows)
}

// Save writes the generated workbook to path, replacing any existing file
// only once the whole workbook is written.
func Save(path string, t *domain.Table) error {
	w, err := sheets.NewWriter()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := WriteWorkbook(w, t); err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}

	out, staged, err := files.CreateStaged(path)
	if err != nil {
		return err
	}
	if err := w.Write(out); err != nil {
		out.Close()
		staged.Rollback()
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := out.Close(); err != nil {
		staged.Rollback()
		return err
	}
	return staged.Commit()
}
