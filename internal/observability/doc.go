// Package observability provides structured logging and Prometheus metrics
// for the dashboard service.
//
// Loggers are zap loggers built from configuration; request-scoped fields
// travel in the context and are attached with FromContext. Metrics are
// registered on a caller-supplied registry so tests can inspect them in
// isolation.
package observability
