// Package notify sends push notifications for batch lifecycle events via
// ntfy. When no topic is configured every notification is a silent no-op.
package notify
