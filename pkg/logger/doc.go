// Package logger provides the structured logging interface used by wbscraper.
//
// It wraps zerolog: a colored console writer by default, plus a JSON file when
// logging.file is configured. Components take a Logger explicitly; the package
// level helpers use a lazily created global instance.
//
//	logger.Initialize(&cfg.Logging)
//	logger.WithField("seed", 1669879400).Info("Traversal started")
//
// Tests use NewTestLogger to capture and assert on messages, or NewNopLogger to
// silence output.
package logger
