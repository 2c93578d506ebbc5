// Package logging wraps log/slog with the handlers and attribute
// conventions shared by every mediascribe component: a console handler for
// interactive runs, a JSON handler for machine consumption, and component
// loggers carrying a standardized "component" field.
package logging
