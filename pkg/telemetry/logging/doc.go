// Package logging provides structured logging with secret redaction.
//
// The package wraps log/slog to provide:
//   - JSON, text and console output formats
//   - Redaction of proxy credentials (password, uuid, psk, ...) and URL
//     userinfo in every record, including ones logged through Slog()
//   - A launch ID carried in the context and added to every record
//     logged with a context
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:         "info",
//	    Format:        "json",
//	    RedactSecrets: true,
//	})
//	if err != nil {
//	    return err
//	}
//
//	ctx = logging.WithLaunchID(ctx, id)
//	logger.InfoContext(ctx, "fleet launched", "instances", 3)
//	// {"level":"INFO","msg":"fleet launched","launch_id":"...","instances":3}
//
// Components accept a *slog.Logger; pass logger.Slog().
package logging
