// Package app wires the configuration, logger and OpenTelemetry providers to
// the three tools of the module: the ETL pipeline, the report builder and the
// synthetic data generator.
//
// The commands build an Application from a loaded configuration, call one
// of RunETL, Report or Generate and finally Close it to push metrics to the
// Pushgateway and flush the providers:
//
//	a, err := app.New(cfg, logger)
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	report, err := a.RunETL(ctx)
//
// Errors are returned to the caller; the package never exits the process.
package app
