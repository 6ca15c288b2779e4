package websocket

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/helpdeskhq/support-router/types"
)

// LogStream broadcasts routing events to connected dashboard clients. It is
// mounted on the main HTTP server; new clients receive the recent log buffer
// on connect and a heartbeat every 30 seconds afterwards.
type LogStream struct {
	hub           *Hub
	logBuffer     []types.AgentLog
	bufferMutex   sync.RWMutex
	maxBufferSize int
	clients       map[string]*types.ConnectionStatus
	clientsMutex  sync.RWMutex
	startTime     time.Time
	stopChan      chan struct{}
	wg            sync.WaitGroup

	allowedOrigins map[string]bool
}

// NewLogStream creates a log stream. allowedOrigins may be empty to accept
// any origin (development mode).
func NewLogStream(allowedOrigins []string) *LogStream {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &LogStream{
		hub:            NewHub(),
		logBuffer:      make([]types.AgentLog, 0, 100),
		maxBufferSize:  100,
		clients:        make(map[string]*types.ConnectionStatus),
		startTime:      time.Now(),
		stopChan:       make(chan struct{}),
		allowedOrigins: origins,
	}
}

// Start runs the hub and the heartbeat sender.
func (s *LogStream) Start() {
	go s.hub.Run()

	s.wg.Add(1)
	go s.startHeartbeat()
}

// Stop notifies clients and shuts the stream down.
func (s *LogStream) Stop() {
	s.sendConnectionStatus(false)
	close(s.stopChan)
	s.hub.Stop()
	s.wg.Wait()
}

// HandleWS upgrades the request and attaches the client to the hub. Mount it
// at the server's /ws path.
func (s *LogStream) HandleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			return s.allowedOrigins[r.Header.Get("Origin")]
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] failed to upgrade connection: %v", err)
		return
	}

	clientID := fmt.Sprintf("client-%d", time.Now().UnixNano())
	client := NewClient(s.hub, conn)

	s.registerClient(clientID)
	client.hub.Register(client)

	s.sendConnectionConfirmation(client, clientID)
	s.sendBufferedLogsToClient(client)

	go client.writePump()
	go client.readPump()

	go func() {
		<-client.done
		s.unregisterClient(clientID)
	}()
}

// BroadcastAgentLog sends a routing log to all connected clients. Implements
// the engine's log sink.
func (s *LogStream) BroadcastAgentLog(l *types.AgentLog) {
	s.addToBuffer(*l)

	wsMsg := types.NewWebSocketMessage(types.WSTypeLog, l)
	if data, err := wsMsg.ToJSON(); err == nil {
		s.hub.Broadcast(data)
	} else {
		log.Printf("[ws] failed to marshal log message: %v", err)
	}
}

// BroadcastError sends an error entry to all connected clients.
func (s *LogStream) BroadcastError(from, errorMsg string) {
	l := types.NewAgentLog(types.LogTypeError, from, errorMsg)
	l.Level = types.LogLevelError
	s.BroadcastAgentLog(l)
}

// BroadcastStatus sends a status update to all connected clients.
func (s *LogStream) BroadcastStatus(status interface{}) {
	wsMsg := types.NewWebSocketMessage(types.WSTypeStatus, status)
	if data, err := wsMsg.ToJSON(); err == nil {
		s.hub.Broadcast(data)
	}
}

// addToBuffer adds a log to the replay buffer with size management.
func (s *LogStream) addToBuffer(l types.AgentLog) {
	s.bufferMutex.Lock()
	defer s.bufferMutex.Unlock()

	s.logBuffer = append(s.logBuffer, l)
	if len(s.logBuffer) > s.maxBufferSize {
		s.logBuffer = s.logBuffer[len(s.logBuffer)-s.maxBufferSize:]
	}
}

// sendBufferedLogsToClient replays the recent log buffer to a new client.
func (s *LogStream) sendBufferedLogsToClient(client *Client) {
	s.bufferMutex.RLock()
	logs := make([]types.AgentLog, len(s.logBuffer))
	copy(logs, s.logBuffer)
	s.bufferMutex.RUnlock()

	for _, l := range logs {
		wsMsg := types.NewWebSocketMessage(types.WSTypeLog, l)
		if data, err := wsMsg.ToJSON(); err == nil {
			select {
			case client.send <- data:
			default:
				// Client's send channel is full, skip
			}
		}
	}
}

// sendConnectionConfirmation sends initial connection confirmation to client
func (s *LogStream) sendConnectionConfirmation(client *Client, clientID string) {
	confirmation := map[string]interface{}{
		"connected": true,
		"clientId":  clientID,
		"timestamp": time.Now().Format(time.RFC3339),
	}

	wsMsg := types.NewWebSocketMessage(types.WSTypeConnection, confirmation)
	if data, err := wsMsg.ToJSON(); err == nil {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (s *LogStream) registerClient(clientID string) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	s.clients[clientID] = &types.ConnectionStatus{
		Connected:   true,
		ClientID:    clientID,
		ConnectedAt: time.Now(),
	}

	log.Printf("[ws] client registered: %s", clientID)
}

func (s *LogStream) unregisterClient(clientID string) {
	s.clientsMutex.Lock()
	defer s.clientsMutex.Unlock()

	delete(s.clients, clientID)
	log.Printf("[ws] client unregistered: %s", clientID)
}

// startHeartbeat sends periodic heartbeat messages.
func (s *LogStream) startHeartbeat() {
	defer s.wg.Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.clientsMutex.RLock()
			clientCount := len(s.clients)
			s.clientsMutex.RUnlock()

			heartbeat := map[string]interface{}{
				"timestamp": time.Now().Format(time.RFC3339),
				"uptime":    time.Since(s.startTime).Seconds(),
				"clients":   clientCount,
			}

			wsMsg := types.NewWebSocketMessage(types.WSTypeHeartbeat, heartbeat)
			if data, err := wsMsg.ToJSON(); err == nil {
				s.hub.Broadcast(data)
			}
		}
	}
}

// sendConnectionStatus sends connection status update
func (s *LogStream) sendConnectionStatus(connected bool) {
	status := map[string]interface{}{
		"connected": connected,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	wsMsg := types.NewWebSocketMessage(types.WSTypeConnection, status)
	if data, err := wsMsg.ToJSON(); err == nil {
		s.hub.Broadcast(data)
	}
}

// Stats returns stream statistics for the status endpoint.
func (s *LogStream) Stats() map[string]interface{} {
	s.bufferMutex.RLock()
	bufferSize := len(s.logBuffer)
	s.bufferMutex.RUnlock()

	s.clientsMutex.RLock()
	clientCount := len(s.clients)
	clientList := make([]string, 0, clientCount)
	for id := range s.clients {
		clientList = append(clientList, id)
	}
	s.clientsMutex.RUnlock()

	return map[string]interface{}{
		"uptime":      time.Since(s.startTime).Seconds(),
		"clients":     clientCount,
		"client_ids":  clientList,
		"buffer_size": bufferSize,
		"max_buffer":  s.maxBufferSize,
		"started_at":  s.startTime.Format(time.RFC3339),
	}
}
