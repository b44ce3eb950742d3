// Package logger builds configured log/slog loggers with environment presets
// and context-aware attribute injection.
//
// Defaults are production-safe (JSON, info level, stdout). Presets flip the
// usual switches in one option:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.AppEnv, "billingd"),
//		logger.WithContextExtractors(requestIDExtractor),
//	)
//	logger.SetAsDefault(log)
//
// Context extractors run on every log call, so request-scoped values such as
// request IDs appear on records automatically when present in the context.
//
// The attribute helpers (Error, AccountID, EventID, SubscriptionRef) keep
// key names consistent across packages.
package logger
