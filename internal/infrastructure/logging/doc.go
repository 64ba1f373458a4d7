// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every service component takes a child logger from Component so log lines
// carry the component name (board, teaching, ws, openai, ...).
//
// Example Usage:
//
//	logger, err := logging.New(logging.ConfigFor(cfg.Logging.Level, cfg.Logging.Development))
//	if err != nil {
//		return err
//	}
//	log := logger.Component("teaching")
//	log.Info("Session started", zap.String("session", sid.String()))
//	log.Error("Model call failed", zap.Error(err))
package logging
