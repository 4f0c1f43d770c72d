// Package logkey はslogの属性キーを揃えるための定数。
package logkey

const (
	RequestID = "request_id"
	TraceID   = "trace_id"
	ERROR     = "error"

	UserID    = "user_id"
	OrderID   = "order_id"
	EventID   = "event_id"
	EventType = "event_type"
	Status    = "status"

	OutboxID = "outbox_id"
	Topic    = "topic"
	Attempts = "attempts"

	Method    = "method"
	Path      = "path"
	Route     = "route"
	LatencyMS = "latency_ms"
	RemoteIP  = "remote_ip"
)
