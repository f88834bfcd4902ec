// Command mockclient runs a scripted interview against a running server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type createSessionResponse struct {
	SessionID  string `json:"session_id"`
	TargetRole string `json:"target_role"`
	Token      string `json:"token"`
}

type serverMessage struct {
	Type       string          `json:"type"`
	Text       string          `json:"text"`
	TurnNumber int             `json:"turn_number"`
	IsFinal    bool            `json:"is_final"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	IssueType  string          `json:"issue_type"`
	Severity   string          `json:"severity"`
	Data       json.RawMessage `json:"data"`
}

var scriptedAnswers = []string{
	"I have five years of experience building data pipelines and models in production.",
	"I built a churn model that cut customer loss by twelve percent over two quarters.",
	"We disagreed on the evaluation metric, so I ran both and we picked using the business impact.",
	"Um, I usually start by, uh, breaking the problem down and checking what data exists.",
	"I want to grow into leading a small applied research team.",
}

func main() {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	role := flag.String("role", "Data Scientist", "target role")
	name := flag.String("name", "Jane", "candidate name")
	flag.Parse()

	// Step 1: Create a session
	fmt.Println("Step 1: Creating session...")

	reqBody, _ := json.Marshal(map[string]string{"target_role": *role, "user_name": *name})
	resp, err := http.Post(*server+"/session/create", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Session creation failed with status: %d", resp.StatusCode)
	}

	var created createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		log.Fatalf("Failed to decode session response: %v", err)
	}
	fmt.Printf("✓ Session %s created for %s\n", created.SessionID, created.TargetRole)

	// Step 2: Connect to WebSocket
	base, err := url.Parse(*server)
	if err != nil {
		log.Fatalf("Invalid server URL: %v", err)
	}
	wsURL := url.URL{Scheme: "ws", Host: base.Host, Path: "/ws/interview/" + created.SessionID}
	if base.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	if created.Token != "" {
		q := wsURL.Query()
		q.Set("token", created.Token)
		wsURL.RawQuery = q.Encode()
	}

	fmt.Printf("Step 2: Connecting to %s\n", wsURL.Redacted())
	conn, wsResp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if wsResp != nil {
			log.Fatalf("WebSocket connection failed with status %d: %v", wsResp.StatusCode, err)
		}
		log.Fatalf("WebSocket connection failed: %v", err)
	}
	defer conn.Close()

	// Step 3: Run the interview
	fmt.Println("Step 3: Starting interview...")
	if err := conn.WriteJSON(map[string]string{"type": "start"}); err != nil {
		log.Fatalf("Failed to send start: %v", err)
	}

	answered := 0
	for {
		conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			log.Fatalf("Connection closed before a report arrived: %v", err)
		}

		switch msg.Type {
		case "question":
			fmt.Printf("\nQ%d%s: %s\n", msg.TurnNumber, finalMarker(msg.IsFinal), msg.Text)
			answer := scriptedAnswers[answered%len(scriptedAnswers)]
			answered++
			fmt.Printf("A%d: %s\n", msg.TurnNumber, answer)
			if err := conn.WriteJSON(map[string]string{"type": "turn", "transcript": answer}); err != nil {
				log.Fatalf("Failed to send answer: %v", err)
			}

		case "feedback":
			fmt.Printf("  [feedback] %s (%s)\n", msg.IssueType, msg.Severity)

		case "error":
			fmt.Printf("  [error] %s: %s\n", msg.Code, msg.Message)

		case "report":
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, msg.Data, "", "  "); err != nil {
				pretty.Write(msg.Data)
			}
			fmt.Println("\n" + strings.Repeat("=", 40))
			fmt.Println("Report:")
			fmt.Println(pretty.String())
			return
		}
	}
}

func finalMarker(isFinal bool) string {
	if isFinal {
		return " (final)"
	}
	return ""
}
