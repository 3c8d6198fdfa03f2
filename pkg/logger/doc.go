// Package logger provides the structured logger used across chanscraper.
//
// It wraps zerolog behind the Logger interface. Console output goes to stderr
// so that stdout stays reserved for the per-image status lines, and an optional
// log file receives the same events.
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//		return err
//	}
//	log.WithField("thread", id).Info("thread fetched")
//
// Components take a Logger in their constructor. Tests pass NewTestLogger to
// assert on captured messages, or NewNopLogger to discard them.
package logger
