// Package main is a small terminal client that prints live feed events.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

var received int64

func main() {
	host := flag.String("host", "localhost:5000", "API server host")
	email := flag.String("email", "", "Log in as this user; empty watches anonymously")
	password := flag.String("password", "password123", "Password for -email")
	filter := flag.String("type", "", "Only print events of this type")
	reconnect := flag.Bool("reconnect", true, "Reconnect when the server drops the socket")
	flag.Parse()

	var token string
	if *email != "" {
		t, err := login(*host, *email, *password)
		if err != nil {
			log.Fatalf("❌ Login failed: %v", err)
		}
		token = t
		log.Printf("✅ Logged in as %s", *email)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		backoff := time.Second
		for {
			err := watch(*host, token, *filter)
			if err == nil || !*reconnect {
				if err != nil {
					log.Printf("❌ %v", err)
				}
				close(done)
				return
			}
			log.Printf("⚠️  connection lost: %v (retrying in %v)", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
		}
	}()

	select {
	case <-interrupt:
		log.Println("🛑 Interrupted")
	case <-done:
	}
	log.Printf("📊 %d events received", atomic.LoadInt64(&received))
}

// watch holds one connection open until it fails. A nil error means the
// server closed the socket normally.
func watch(host, token, filter string) error {
	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws/feed"}
	if token != "" {
		// Tickets are single use so each connection asks for a fresh one.
		ticket, err := getTicket(host, token)
		if err != nil {
			return fmt.Errorf("ticket: %w", err)
		}
		u.RawQuery = "ticket=" + url.QueryEscape(ticket)
	}

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	log.Printf("🔌 Connected to %s", u.Redacted())

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}

		var ev event
		if err := json.Unmarshal(msg, &ev); err != nil {
			log.Printf("unparseable frame: %s", msg)
			continue
		}
		atomic.AddInt64(&received, 1)
		if filter != "" && ev.Type != filter {
			continue
		}
		fmt.Printf("%s  %-16s %s\n", time.Now().Format(time.TimeOnly), ev.Type, ev.Payload)
	}
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getTicket(host, token string) (string, error) {
	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/ws/ticket", host), nil)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}
