// Package operations orchestrates the bank ranking ETL run.
//
// A Pipeline is built from an explicit config.Config and executes a fixed
// sequence of steps:
//
//	extract -> transform -> load_csv -> [load_workbook] -> connect -> load_db -> query
//
// Each step reads from and writes to a shared RunState. The first failing
// step aborts the run; its StepState is marked failed and every later step
// stays pending. Progress is recorded in an append-only AuditLog, one
// "<timestamp> : <message>" line per milestone.
//
// Example usage:
//
//	cfg, err := config.Load("")
//	if err != nil {
//		return err
//	}
//	pipeline, err := operations.NewPipeline(cfg,
//		operations.WithLogger(logger),
//		operations.WithOutput(os.Stdout))
//	if err != nil {
//		return err
//	}
//	report, err := pipeline.Run(ctx)
//
// The returned RunReport is never nil and describes every step, including
// the ones that did not run.
package operations
