package pushchan_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nodo1014/indexer/internal/pushchan"
)

var upgrader = websocket.Upgrader{}

type pushServer struct {
	srv      *httptest.Server
	upgrades atomic.Int32
	paths    struct {
		mu   sync.Mutex
		seen []string
	}
	onConn func(ws *websocket.Conn)
}

func newPushServer(t *testing.T, onConn func(ws *websocket.Conn)) *pushServer {
	t.Helper()
	ps := &pushServer{onConn: onConn}
	ps.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		ps.upgrades.Add(1)
		ps.paths.mu.Lock()
		ps.paths.seen = append(ps.paths.seen, r.URL.Path)
		ps.paths.mu.Unlock()
		defer ws.Close()
		if ps.onConn != nil {
			ps.onConn(ws)
		}
	}))
	t.Cleanup(ps.srv.Close)
	return ps
}

func (ps *pushServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ps.srv.URL, "http")
}

func testOptions(url string) pushchan.Options {
	return pushchan.Options{
		URL:                  url,
		MaxReconnectAttempts: 3,
		ReconnectInterval:    20 * time.Millisecond,
		HandshakeTimeout:     time.Second,
	}
}

func waitForState(t *testing.T, conn *pushchan.Connection, want pushchan.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %s, want %s", conn.State(), want)
}

func TestEndpointURLEscapesClientID(t *testing.T) {
	got := pushchan.EndpointURL("ws://worker:8000/", "client one")
	if got != "ws://worker:8000/ws/client%20one" {
		t.Fatalf("url = %q", got)
	}
}

func TestParseState(t *testing.T) {
	if state, ok := pushchan.ParseState(" Connected "); !ok || state != pushchan.StateConnected {
		t.Fatalf("ParseState = %q, %v", state, ok)
	}
	if _, ok := pushchan.ParseState("offline"); ok {
		t.Fatal("unknown state must not parse")
	}
}

func TestConnectDeliversFramesInOrder(t *testing.T) {
	ready := make(chan struct{})
	server := newPushServer(t, func(ws *websocket.Conn) {
		for _, frame := range []string{`{"seq":1}`, `{"seq":2}`, `{"seq":3}`} {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		<-ready
	})

	var mu sync.Mutex
	var got []int
	conn := pushchan.New(testOptions(server.wsURL()+"/ws/test-client"), func(payload []byte) {
		var frame struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Errorf("unmarshal: %v", err)
			return
		}
		mu.Lock()
		got = append(got, frame.Seq)
		mu.Unlock()
	})
	defer conn.Disconnect()

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForState(t, conn, pushchan.StateConnected)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(ready)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("frames = %v", got)
	}
}

func TestConnectIsIdempotent(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	server := newPushServer(t, func(ws *websocket.Conn) { <-block })

	conn := pushchan.New(testOptions(server.wsURL()+"/ws/test-client"), nil)
	defer conn.Disconnect()

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForState(t, conn, pushchan.StateConnected)
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("second Connect: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if n := server.upgrades.Load(); n != 1 {
		t.Fatalf("upgrades = %d, want 1", n)
	}
}

func TestSendRequiresConnection(t *testing.T) {
	conn := pushchan.New(testOptions("ws://127.0.0.1:1/ws/x"), nil)
	if err := conn.Send(map[string]string{"type": "ping"}); err != pushchan.ErrNotConnected {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
}

func TestStopSendsStopProcessingFrame(t *testing.T) {
	frames := make(chan map[string]string, 1)
	server := newPushServer(t, func(ws *websocket.Conn) {
		var frame map[string]string
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}
		frames <- frame
	})

	conn := pushchan.New(testOptions(server.wsURL()+"/ws/test-client"), nil)
	defer conn.Disconnect()
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	waitForState(t, conn, pushchan.StateConnected)

	if err := conn.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case frame := <-frames:
		if frame["type"] != "stop_processing" {
			t.Fatalf("frame = %v", frame)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker never received the stop frame")
	}
}

func TestReconnectsAfterServerDrop(t *testing.T) {
	var drops atomic.Int32
	block := make(chan struct{})
	defer close(block)
	server := newPushServer(t, func(ws *websocket.Conn) {
		if drops.Add(1) == 1 {
			return // close immediately, forcing a redial
		}
		<-block
	})

	conn := pushchan.New(testOptions(server.wsURL()+"/ws/test-client"), nil)
	defer conn.Disconnect()
	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if server.upgrades.Load() >= 2 && conn.State() == pushchan.StateConnected {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("no reconnect: upgrades=%d state=%s", server.upgrades.Load(), conn.State())
}

func TestReconnectBudgetExhausted(t *testing.T) {
	server := newPushServer(t, nil)
	url := server.wsURL() + "/ws/test-client"
	server.srv.Close() // nothing is listening anymore

	states := make(chan pushchan.State, 16)
	conn := pushchan.New(testOptions(url), nil)
	conn.OnStateChange(func(s pushchan.State) { states <- s })

	if err := conn.Connect(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}

	deadline := time.After(3 * time.Second)
	for {
		select {
		case s := <-states:
			if s == pushchan.StateError {
				return
			}
		case <-deadline:
			t.Fatalf("never reached error state, current %s", conn.State())
		}
	}
}

func TestDisconnectCancelsPendingReconnect(t *testing.T) {
	server := newPushServer(t, nil)
	url := server.wsURL() + "/ws/test-client"
	server.srv.Close()

	opts := testOptions(url)
	opts.ReconnectInterval = 200 * time.Millisecond
	conn := pushchan.New(opts, nil)

	_ = conn.Connect(context.Background()) // fails, arms the redial timer
	conn.Disconnect()
	waitForState(t, conn, pushchan.StateDisconnected)

	time.Sleep(400 * time.Millisecond)
	if got := conn.State(); got != pushchan.StateDisconnected {
		t.Fatalf("state = %s after disconnect, want disconnected", got)
	}
}

func TestConnectRestartsFromErrorState(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	dead := newPushServer(t, nil)
	deadURL := dead.wsURL() + "/ws/test-client"
	dead.srv.Close()

	opts := testOptions(deadURL)
	opts.MaxReconnectAttempts = 1
	opts.ReconnectInterval = 10 * time.Millisecond
	conn := pushchan.New(opts, nil)
	_ = conn.Connect(context.Background())
	waitForState(t, conn, pushchan.StateError)

	// A fresh Connect resets the budget; it still fails against the dead
	// endpoint but must leave the error state while trying.
	_ = conn.Connect(context.Background())
	waitForState(t, conn, pushchan.StateError)
	conn.Disconnect()
}
