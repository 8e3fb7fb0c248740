// Package logging builds the slog loggers used across scout and provides
// attribute helpers plus standardized field keys so components log with a
// consistent shape.
package logging
