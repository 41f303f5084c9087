// Package config provides configuration management for the ETL tools.
// It handles loading configuration from multiple sources, validation, and
// conversion into the typed schema the transforms consume.
//
// # Configuration Sources
//
// Configuration is layered in the following order, later sources winning:
//
//	1. Default values
//	2. Configuration file (YAML or JSON): the -config flag, or etl.yaml /
//	   configs/etl.yaml when present
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern ETL_* for namespacing:
//
//	ETL_INPUT_FILE=data/synthetic.xlsx
//	ETL_VALIDATION_RULES_AMOUNT_MAX=50000
//	ETL_COLUMNS=amount:Valor,date:Data
//	ETL_LOGGING_LEVEL=debug
//	ETL_TELEMETRY_PUSHGATEWAY_URL=http://localhost:9091
//
// KPI thresholds are nested structures and can only be set in the file.
//
// # Example File
//
//	input_file: data/synthetic.xlsx
//	output_file: data/processed.xlsx
//	sheet_name: Main_Data
//	validation_rules:
//	  required_columns: [ID, Date, Department, Amount]
//	  amount_min: 0
//	  amount_max: 100000
//	kpi_thresholds:
//	  outliers: {max: 5}
//
// # Validation
//
// Load validates the merged configuration with go-playground/validator and
// returns a CONFIG AppError listing every violated rule.
package config
