package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/helpdeskhq/support-router/types"
	"github.com/helpdeskhq/support-router/websocket"
)

// Interactive CLI against the routing server. Each line is sent as one
// conversation turn; -tail additionally streams the server's routing log.
func main() {
	server := flag.String("server", "http://localhost:8080", "router server base URL")
	session := flag.String("session", "", "session ID to continue (default: new session)")
	tail := flag.Bool("tail", false, "stream routing logs from /ws while chatting")
	verbose := flag.Bool("verbose", false, "print intent and routing path with each reply")
	flag.Parse()

	base := strings.TrimRight(*server, "/")
	sessionID := *session
	if sessionID == "" {
		sessionID = "cli-" + uuid.NewString()
	}

	if *tail {
		if err := tailLogs(base); err != nil {
			fmt.Fprintf(os.Stderr, "log stream unavailable: %v\n", err)
		}
	}

	fmt.Printf("session %s (ctrl-d to quit)\n", sessionID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			break
		}

		resp, err := sendTurn(base, sessionID, line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		fmt.Println(resp.Response)
		if *verbose {
			fmt.Printf("  [intent=%s handler=%s path=%s]\n", resp.Intent, resp.Handler, strings.Join(resp.RoutingPath, " -> "))
			if resp.TicketID != "" {
				fmt.Printf("  [ticket=%s]\n", resp.TicketID)
			}
		}
	}
	fmt.Println()
}

func sendTurn(base, sessionID, message string) (*types.TurnResponse, error) {
	body, _ := json.Marshal(types.TurnRequest{Message: message, SessionID: sessionID})

	req, err := http.NewRequest(http.MethodPost, base+"/api/turn", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(data))
	}

	var out types.TurnResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("bad response: %w", err)
	}
	return &out, nil
}

// tailLogs connects to the server's log stream and prints routing events as
// they happen. The reconnecting client survives server restarts.
func tailLogs(base string) error {
	u, err := url.Parse(base)
	if err != nil {
		return err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}

	client, err := websocket.NewReconnectingClient(fmt.Sprintf("%s://%s/ws", scheme, u.Host))
	if err != nil {
		return err
	}

	client.SetOnMessage(func(data []byte) {
		var msg types.WebSocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return
		}
		if msg.Type != types.WSTypeLog {
			return
		}
		payload, _ := json.Marshal(msg.Payload)
		var l types.AgentLog
		if err := json.Unmarshal(payload, &l); err != nil {
			return
		}
		fmt.Printf("  -- [%s] %s -> %s: %s\n", l.Type, l.From, l.To, l.Content)
	})

	return client.Start()
}
