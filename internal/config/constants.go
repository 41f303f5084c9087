package config

// Application constants
const (
	AppName    = "etlcli"
	AppVersion = "1.0.0"

	// EnvPrefix prefixes every environment override, e.g. ETL_LOGGING_LEVEL.
	EnvPrefix = "ETL"

	DefaultInputFile   = "data/synthetic.xlsx"
	DefaultOutputFile  = "data/processed.xlsx"
	DefaultSheetName   = "Main_Data"
	DefaultLogFile     = "logs/etl.log"
	DefaultSQLiteTable = "processed_data"
)

// Sheet names of the processed workbook
const (
	SheetProcessedData     = "Processed_Data"
	SheetExecutiveSummary  = "Executive_Summary"
	SheetDepartmentSummary = "Department_Summary"
	SheetMonthlySummary    = "Monthly_Summary"
	SheetKPIAlerts         = "KPI_Alerts"
)

// ConfigFileCandidates are searched in order when no -config flag is given.
var ConfigFileCandidates = []string{"etl.yaml", "etl.yml", "configs/etl.yaml"}
