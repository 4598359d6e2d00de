// Package shared holds helpers used across packages that belong to no single
// layer. Its testutil subpackage provides slog capture for tests:
//
//	logger, logs := testutil.NewTestLogger(t)
//	pipeline, _ := operations.NewPipeline(cfg, operations.WithLogger(logger))
//	...
//	testutil.AssertLogContains(t, logs, slog.LevelError, "step failed")
package shared
