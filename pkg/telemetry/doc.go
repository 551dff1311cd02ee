// Package telemetry provides structured logging for potaplan, built on
// zerolog with component child loggers and context propagation.
package telemetry
