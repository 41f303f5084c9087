package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "etlcli/internal/errors"
	"etlcli/pkg/contracts/domain"
)

// Config represents the complete application configuration
type Config struct {
	InputFile          string               `yaml:"input_file" envconfig:"INPUT_FILE" validate:"required"`
	OutputFile         string               `yaml:"output_file" envconfig:"OUTPUT_FILE" validate:"required"`
	SheetName          string               `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	CSVOutput          string               `yaml:"csv_output" envconfig:"CSV_OUTPUT"`
	QualityReport      string               `yaml:"quality_report" envconfig:"QUALITY_REPORT"`
	DateColumns        []string             `yaml:"date_columns" envconfig:"DATE_COLUMNS"`
	NumericColumns     []string             `yaml:"numeric_columns" envconfig:"NUMERIC_COLUMNS"`
	CategoricalColumns []string             `yaml:"categorical_columns" envconfig:"CATEGORICAL_COLUMNS"`
	Columns            map[string]string    `yaml:"columns" envconfig:"COLUMNS" validate:"dive,keys,oneof=id date department category amount status,endkeys,required"`
	DateLayouts        []string             `yaml:"date_layouts" envconfig:"DATE_LAYOUTS" validate:"min=1,dive,required"`
	StatusMapping      map[string]string    `yaml:"status_mapping" envconfig:"STATUS_MAPPING"`
	ValidationRules    ValidationRules      `yaml:"validation_rules" envconfig:"VALIDATION_RULES"`
	KPIThresholds      map[string]Threshold `yaml:"kpi_thresholds" ignored:"true" validate:"dive,keys,oneof=total_transactions total_amount mean_amount transactions_today active_departments outliers,endkeys,required"`
	SQLite             SQLiteConfig         `yaml:"sqlite" envconfig:"SQLITE"`
	Logging            LoggingConfig        `yaml:"logging" envconfig:"LOGGING"`
	Telemetry          TelemetryConfig      `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ValidationRules are the checks the Validate phase applies.
type ValidationRules struct {
	RequiredColumns []string `yaml:"required_columns" envconfig:"REQUIRED_COLUMNS" validate:"dive,required"`
	AmountMin       float64  `yaml:"amount_min" envconfig:"AMOUNT_MIN"`
	AmountMax       float64  `yaml:"amount_max" envconfig:"AMOUNT_MAX" validate:"gtefield=AmountMin"`
}

// Threshold bounds one KPI.
type Threshold = domain.Threshold

// SQLiteConfig enables the optional SQLite sink when DSN is set.
type SQLiteConfig struct {
	DSN   string `yaml:"dsn" envconfig:"DSN"`
	Table string `yaml:"table" envconfig:"TABLE" validate:"required,sqlident"`
}

// Enabled reports whether the SQLite sink is configured.
func (s SQLiteConfig) Enabled() bool { return s.DSN != "" }

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
}

// TelemetryConfig contains OpenTelemetry and Pushgateway settings
type TelemetryConfig struct {
	Tracing        bool    `yaml:"tracing" envconfig:"TRACING"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	Metrics        bool    `yaml:"metrics" envconfig:"METRICS"`
	PushgatewayURL string  `yaml:"pushgateway_url" envconfig:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	Job            string  `yaml:"job" envconfig:"JOB" validate:"required_with=PushgatewayURL"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	return &Config{
		InputFile:          DefaultInputFile,
		OutputFile:         DefaultOutputFile,
		SheetName:          DefaultSheetName,
		DateColumns:        []string{"Date"},
		NumericColumns:     []string{"Amount", "Cumulative_Amount", "Dept_Monthly_Mean"},
		CategoricalColumns: []string{"Department", "Category", "Status"},
		Columns: map[string]string{
			string(domain.RoleID):         "ID",
			string(domain.RoleDate):       "Date",
			string(domain.RoleDepartment): "Department",
			string(domain.RoleCategory):   "Category",
			string(domain.RoleAmount):     "Amount",
			string(domain.RoleStatus):     "Status",
		},
		DateLayouts: []string{
			"2006-01-02",
			"02/01/2006",
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05Z07:00",
		},
		StatusMapping: map[string]string{
			"approved":  "Approved",
			"pending":   "Pending",
			"rejected":  "Rejected",
			"aprovado":  "Aprovado",
			"pendente":  "Pendente",
			"rejeitado": "Rejeitado",
		},
		ValidationRules: ValidationRules{
			RequiredColumns: []string{"ID", "Date", "Department", "Amount"},
			AmountMin:       0,
			AmountMax:       100000,
		},
		KPIThresholds: map[string]Threshold{
			domain.KPITotalAmount:       {Min: float64Ptr(100000), Max: float64Ptr(1000000)},
			domain.KPITransactionsToday: {Min: float64Ptr(10), Max: float64Ptr(100)},
			domain.KPIOutliers:          {Max: float64Ptr(5)},
		},
		SQLite: SQLiteConfig{Table: DefaultSQLiteTable},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			SampleRatio:   1.0,
			Metrics:       true,
			Job:           AppName,
		},
	}
}

// Load builds the configuration: defaults, then the config file, then ETL_*
// environment variables. An empty path falls back to the discovered file, if any.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DiscoverConfigFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, apperrors.NewConfigError(fmt.Sprintf("config file %s not readable", path), err)
	}

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file", err).
				WithContext("path", path)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile overlays a YAML (or JSON) file onto cfg. Keys absent from the
// file keep their current value; maps are merged key by key.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var sqlIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return sqlIdent.MatchString(fl.Field().String())
	})
	// Report yaml key names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration and returns a CONFIG AppError describing
// every violated rule.
func (c *Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return apperrors.NewConfigError("config validation failed", err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag()))
		}
		return apperrors.NewConfigError("config validation failed: "+strings.Join(msgs, "; "), err)
	}

	for name, th := range c.KPIThresholds {
		if th.Min != nil && th.Max != nil && *th.Max < *th.Min {
			return apperrors.NewConfigError(
				fmt.Sprintf("config validation failed: kpi_thresholds.%s max below min", name), nil)
		}
	}
	return nil
}

// Schema returns the typed schema the transforms consume.
func (c *Config) Schema() domain.Schema {
	cols := make(domain.ColumnMap, len(c.Columns))
	for role, name := range c.Columns {
		cols[domain.Role(role)] = name
	}
	return domain.Schema{
		Columns:            cols,
		Required:           c.ValidationRules.RequiredColumns,
		DateColumns:        c.DateColumns,
		NumericColumns:     c.NumericColumns,
		CategoricalColumns: c.CategoricalColumns,
		DateLayouts:        c.DateLayouts,
		AmountMin:          c.ValidationRules.AmountMin,
		AmountMax:          c.ValidationRules.AmountMax,
		StatusMapping:      c.StatusMapping,
	}
}

// CSVPath returns the CSV copy path, derived from OutputFile when unset.
func (c *Config) CSVPath() string {
	if c.CSVOutput != "" {
		return c.CSVOutput
	}
	return ReplaceExt(c.OutputFile, ".csv")
}

func float64Ptr(v float64) *float64 { return &v }
