// Package httpserver runs an http.Server with graceful shutdown wired to
// SIGINT/SIGTERM and context cancellation, plus a probe handler for
// liveness/readiness endpoints.
//
//	var cfg httpserver.Config
//	config.MustLoad(&cfg)
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server failed", logger.Error(err))
//	}
//
// Run blocks until shutdown completes; in-flight requests get
// Config.ShutdownTimeout to finish.
package httpserver
