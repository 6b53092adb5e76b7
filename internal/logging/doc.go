// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: coloured console output
//
// Components receive a named child logger:
//
//	logger, err := logging.New(logging.Config{Level: "info"})
//	if err != nil {
//		return err
//	}
//	log := logger.Component("loader")
//	log.Warn("relative import degraded", zap.String("url", url))
package logging
