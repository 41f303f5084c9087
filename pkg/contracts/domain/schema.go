package domain

// Role names a column the pipeline knows how to treat. Columns without a role are
// carried through untouched.
type Role string

const (
	RoleID         Role = "id"
	RoleDate       Role = "date"
	RoleDepartment Role = "department"
	RoleCategory   Role = "category"
	RoleAmount     Role = "amount"
	RoleStatus     Role = "status"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleID, RoleDate, RoleDepartment, RoleCategory, RoleAmount, RoleStatus}

// ColumnMap binds roles to column names in the input data.
type ColumnMap map[Role]string

// DefaultColumnMap is the column naming of the synthetic dataset.
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		RoleID:         "ID",
		RoleDate:       "Date",
		RoleDepartment: "Department",
		RoleCategory:   "Category",
		RoleAmount:     "Amount",
		RoleStatus:     "Status",
	}
}

// Name returns the column bound to role, falling back to the default naming.
func (m ColumnMap) Name(role Role) string {
	if n, ok := m[role]; ok && n != "" {
		return n
	}
	return DefaultColumnMap()[role]
}

// Schema is the typed view of the pipeline configuration the transforms consume.
type Schema struct {
	Columns            ColumnMap
	Required           []string
	DateColumns        []string
	NumericColumns     []string
	CategoricalColumns []string
	DateLayouts        []string
	AmountMin          float64
	AmountMax          float64
	// StatusMapping maps case-folded raw status values to canonical labels.
	StatusMapping map[string]string
}

// Extensions returns the columns of t that are bound to no role.
func (s Schema) Extensions(t *Table) []string {
	known := make(map[string]struct{}, len(Roles))
	for _, r := range Roles {
		known[s.Columns.Name(r)] = struct{}{}
	}
	var out []string
	for _, c := range t.Columns {
		if _, ok := known[c.Name]; !ok {
			out = append(out, c.Name)
		}
	}
	return out
}
