package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, srv *httptest.Server, query string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	return websocket.DefaultDialer.Dial(url, header)
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("hub has %d clients, want %d", hub.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWebSocketWarmProgress(t *testing.T) {
	ts := newTestServer(t, nil)
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	conn, _, err := dialWS(t, srv, "", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitClients(t, ts.hub, 1)

	_, env := ts.do(t, http.MethodPost, "/jobs/warm", `{"from":3,"to":3}`)
	id := decode[Job](t, env.Data).ID

	var progress int
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var msg ProgressMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("message %s: %v", data, err)
		}
		if msg.JobID != id || msg.Operation != "warm" {
			t.Errorf("message = %+v", msg)
		}
		if msg.Type == "progress" {
			progress++
			continue
		}
		if msg.Type != "complete" || msg.Progress != 100 || msg.Timestamp == "" {
			t.Errorf("final message = %+v", msg)
		}
		break
	}
	if progress != 1 {
		t.Errorf("progress messages = %d, want 1", progress)
	}
}

func TestWebSocketAuth(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.Config.Auth = AuthConfig{Enabled: true, APIKey: "0123456789abcdef"}
	})
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	_, resp, err := dialWS(t, srv, "", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial without key: err=%v resp=%v", err, resp)
	}
	_, resp, err = dialWS(t, srv, "?api_key=wrong-key-wrong-key", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("dial with wrong key: err=%v resp=%v", err, resp)
	}

	conn, _, err := dialWS(t, srv, "?api_key=0123456789abcdef", nil)
	if err != nil {
		t.Fatalf("dial with query key: %v", err)
	}
	conn.Close()

	conn, _, err = dialWS(t, srv, "", http.Header{"X-API-Key": {"0123456789abcdef"}})
	if err != nil {
		t.Fatalf("dial with header key: %v", err)
	}
	conn.Close()
}

func TestWebSocketOriginRejected(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.Config.AllowedOrigins = []string{"https://igreja.example"}
	})
	srv := httptest.NewServer(ts.handler)
	defer srv.Close()

	_, resp, err := dialWS(t, srv, "", http.Header{"Origin": {"https://evil.example"}})
	if err == nil || resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("foreign origin: err=%v resp=%v", err, resp)
	}
	conn, _, err := dialWS(t, srv, "", http.Header{"Origin": {"https://igreja.example"}})
	if err != nil {
		t.Fatalf("allowed origin: %v", err)
	}
	conn.Close()
}

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		origin  string
		allowed []string
		want    bool
	}{
		{"https://a.example", nil, true},
		{"", nil, true},
		{"", []string{"https://a.example"}, false},
		{"https://a.example", []string{"https://a.example"}, true},
		{"https://b.example", []string{"https://a.example"}, false},
		{"https://anything", []string{"*"}, true},
		{"https://app.igreja.org", []string{"*.igreja.org"}, true},
		{"https://igreja.org.evil.com", []string{"*.igreja.org"}, false},
	}
	for _, tt := range tests {
		if got := isOriginAllowed(tt.origin, tt.allowed); got != tt.want {
			t.Errorf("isOriginAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowed, got, tt.want)
		}
	}
}

func TestHubBroadcastWithoutRun(t *testing.T) {
	var nilHub *Hub
	nilHub.Broadcast(ProgressMessage{Type: "progress"})

	h := NewHub()
	for i := 0; i < 300; i++ {
		h.Broadcast(ProgressMessage{Type: "progress"})
	}
	if len(h.broadcast) != cap(h.broadcast) {
		t.Errorf("broadcast buffer = %d, want full", len(h.broadcast))
	}
}
