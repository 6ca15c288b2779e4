package types

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"
)

// TurnRequest represents an incoming conversation turn from a client
type TurnRequest struct {
	Message   string           `json:"message"`
	SessionID string           `json:"sessionId,omitempty"`
	Metadata  *RequestMetadata `json:"metadata,omitempty"`
}

// RequestMetadata contains metadata for the request
type RequestMetadata struct {
	UserID    string `json:"userId,omitempty"`
	Channel   string `json:"channel,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	ClientIP  string `json:"clientIp,omitempty"`
}

// TurnResponse represents the response to a conversation turn
type TurnResponse struct {
	Response        string            `json:"response"`
	Intent          string            `json:"intent"`
	Confidence      float64           `json:"confidence"`
	Entities        []EntityPayload   `json:"entities,omitempty"`
	Handler         string            `json:"handler"`
	RoutingPath     []string          `json:"routingPath,omitempty"`
	NeedsEscalation bool              `json:"needsEscalation"`
	TicketID        string            `json:"ticketId,omitempty"`
	Logs            []AgentLog        `json:"logs,omitempty"`
	Metadata        *ResponseMetadata `json:"metadata,omitempty"`
	Error           *ErrorDetail      `json:"error,omitempty"`
}

// EntityPayload is the wire form of an extracted entity
type EntityPayload struct {
	Type       string  `json:"type"`
	Value      string  `json:"value"`
	Canonical  string  `json:"canonical,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ResponseMetadata contains metadata for the response
type ResponseMetadata struct {
	RequestID      string  `json:"requestId"`
	ProcessingTime float64 `json:"processingTime"` // in milliseconds
	Timestamp      string  `json:"timestamp"`
}

// WebSocketMessage represents a WebSocket message
type WebSocketMessage struct {
	Type      string      `json:"type"` // "log", "error", "status", "heartbeat", "connection"
	Payload   interface{} `json:"payload"`
	Timestamp string      `json:"timestamp"`
	MessageID string      `json:"messageId,omitempty"`
}

// AgentLog represents a log entry from a handler or the routing engine
type AgentLog struct {
	Type      string `json:"type"` // "routing", "classify", "escalation", "orders", "faq", "ticket", "error"
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	Content   string `json:"content"`
	SessionID string `json:"sessionId,omitempty"`
	Timestamp string `json:"timestamp"`
	MessageID string `json:"messageId,omitempty"`
	Level     string `json:"level,omitempty"` // "info", "warning", "error", "debug"
}

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Details     string `json:"details,omitempty"`
	Recoverable bool   `json:"recoverable"`
}

// ConnectionStatus represents WebSocket connection status
type ConnectionStatus struct {
	Connected    bool      `json:"connected"`
	ClientID     string    `json:"clientId"`
	ConnectedAt  time.Time `json:"connectedAt,omitempty"`
	LastPing     time.Time `json:"lastPing,omitempty"`
	MessageCount int       `json:"messageCount"`
}

// HealthCheckResponse represents the health status of the service
type HealthCheckResponse struct {
	Status    string                   `json:"status"` // "healthy", "degraded", "unhealthy"
	Timestamp string                   `json:"timestamp"`
	Version   string                   `json:"version"`
	Services  map[string]ServiceStatus `json:"services"`
}

// ServiceStatus represents the status of a dependent service
type ServiceStatus struct {
	Name      string  `json:"name"`
	Status    string  `json:"status"`            // "up", "down", "degraded"
	Latency   float64 `json:"latency,omitempty"` // in milliseconds
	LastCheck string  `json:"lastCheck"`
	Error     string  `json:"error,omitempty"`
}

// Constants for message types
const (
	// WebSocket message types
	WSTypeLog        = "log"
	WSTypeError      = "error"
	WSTypeStatus     = "status"
	WSTypeHeartbeat  = "heartbeat"
	WSTypeConnection = "connection"

	// Agent log types
	LogTypeRouting    = "routing"
	LogTypeClassify   = "classify"
	LogTypeEscalation = "escalation"
	LogTypeOrders     = "orders"
	LogTypeFAQ        = "faq"
	LogTypeTicket     = "ticket"
	LogTypeError      = "error"

	// Log levels
	LogLevelInfo    = "info"
	LogLevelWarning = "warning"
	LogLevelError   = "error"
	LogLevelDebug   = "debug"

	// Service status
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusUp        = "up"
	StatusDown      = "down"
)

// Helper functions

// NewWebSocketMessage creates a new WebSocket message
func NewWebSocketMessage(msgType string, payload interface{}) *WebSocketMessage {
	return &WebSocketMessage{
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: generateMessageID(),
	}
}

// NewAgentLog creates a new agent log entry
func NewAgentLog(logType, from, content string) *AgentLog {
	return &AgentLog{
		Type:      logType,
		From:      from,
		Content:   content,
		Timestamp: time.Now().Format(time.RFC3339),
		MessageID: generateMessageID(),
		Level:     LogLevelInfo,
	}
}

// ToJSON converts the message to JSON
func (m *WebSocketMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToJSON converts the log to JSON
func (l *AgentLog) ToJSON() ([]byte, error) {
	return json.Marshal(l)
}

// generateMessageID generates a unique message ID
func generateMessageID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixNano(), generateRandomString(8))
}

// generateRandomString generates a random string of specified length
func generateRandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
