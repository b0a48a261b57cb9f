// Package logger provides the structured logging interface used across vkbackup.
//
// It wraps zerolog behind a small Logger interface so components can take a
// logger as a dependency and tests can swap in NewTestLogger or NewNopLogger.
//
// Basic Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Folder ready", map[string]interface{}{
//	    "folder": "VK_Photos_1_2024-05-01",
//	})
//
// Console output is written to stderr with colored levels. When
// LoggingConfig.File is set, JSON lines are appended to that file instead.
// Query parameters that carry tokens are masked by RedactURL before any URL
// reaches a log line.
package logger
