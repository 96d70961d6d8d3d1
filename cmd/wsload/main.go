// Command wsload is a load generator for the chat websocket. Each client logs
// in as a seeded account, opens a direct chat with the next account and sends
// messages over the socket while counting what it receives.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"pixelgram/internal/middleware"

	"github.com/gorilla/websocket"
)

// Metrics tracks the run.
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	MessagesSent         int64
	MessagesAcked        int64
	MessagesReceived     int64
	Errors               int64
}

var (
	metrics Metrics
	log     = middleware.Logger
)

type session struct {
	token  string
	chatID uint
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	accounts := flag.String("accounts", "demo,alice,bob", "Comma separated seeded usernames")
	password := flag.String("password", "password123", "Password shared by the accounts")
	clients := flag.Int("clients", 20, "Number of concurrent clients")
	interval := flag.Duration("interval", 2*time.Second, "Delay between messages per client")
	duration := flag.Duration("duration", 30*time.Second, "Test duration")
	flag.Parse()

	names := strings.Split(*accounts, ",")
	if len(names) < 2 {
		log.Error("need at least two accounts")
		os.Exit(2)
	}

	sessions := make([]session, len(names))
	for i, name := range names {
		token, err := login(*host, name+"@example.com", *password)
		if err != nil {
			log.Error("login failed", slog.String("account", name), slog.String("error", err.Error()))
			os.Exit(1)
		}
		chatID, err := openChat(*host, token, names[(i+1)%len(names)])
		if err != nil {
			log.Error("open chat failed", slog.String("account", name), slog.String("error", err.Error()))
			os.Exit(1)
		}
		sessions[i] = session{token: token, chatID: chatID}
	}
	log.Info("starting websocket load",
		slog.String("target", *host),
		slog.Int("clients", *clients),
		slog.Duration("duration", *duration),
	)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, sessions[i%len(sessions)], i, *interval, stop, &wg)
		time.Sleep(50 * time.Millisecond) // stagger ticket issuance
	}

	select {
	case <-time.After(*duration):
		log.Info("duration reached")
	case <-interrupt:
		log.Info("interrupted")
	}
	close(stop)
	wg.Wait()

	log.Info("results",
		slog.Int64("connections_attempted", atomic.LoadInt64(&metrics.ConnectionsAttempted)),
		slog.Int64("connections_ok", atomic.LoadInt64(&metrics.ConnectionsSuccess)),
		slog.Int64("connections_failed", atomic.LoadInt64(&metrics.ConnectionsFailed)),
		slog.Int64("sent", atomic.LoadInt64(&metrics.MessagesSent)),
		slog.Int64("acked", atomic.LoadInt64(&metrics.MessagesAcked)),
		slog.Int64("received", atomic.LoadInt64(&metrics.MessagesReceived)),
		slog.Int64("errors", atomic.LoadInt64(&metrics.Errors)),
	)
}

func postJSON(rawURL, token string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(http.MethodPost, rawURL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d", rawURL, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func login(host, email, password string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/auth/login", host), "",
		map[string]string{"email": email, "password": password}, &result)
	return result.Token, err
}

func openChat(host, token, username string) (uint, error) {
	var chat struct {
		ID uint `json:"id"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/chats", host), token,
		map[string]string{"username": username}, &chat)
	return chat.ID, err
}

func getTicket(host, token string) (string, error) {
	var result struct {
		Ticket string `json:"ticket"`
	}
	err := postJSON(fmt.Sprintf("http://%s/api/ws/ticket", host), token, nil, &result)
	return result.Ticket, err
}

func runClient(host string, s session, id int, interval time.Duration, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	ticket, err := getTicket(host, s.token)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + url.QueryEscape(ticket)}
	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()
	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			var frame struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(raw, &frame) != nil {
				continue
			}
			switch frame.Type {
			case "message_sent":
				atomic.AddInt64(&metrics.MessagesAcked, 1)
			case "error":
				atomic.AddInt64(&metrics.Errors, 1)
			default:
				atomic.AddInt64(&metrics.MessagesReceived, 1)
			}
		}
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			frame, _ := json.Marshal(map[string]any{
				"type": "message",
				"payload": map[string]any{
					"chat_id": s.chatID,
					"content": fmt.Sprintf("load message from client %d", id),
				},
			})
			if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
			atomic.AddInt64(&metrics.MessagesSent, 1)
		}
	}
}
