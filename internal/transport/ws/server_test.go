package ws

import (
	"context"
	"net"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"tokenwheel.ai/internal/protocol"
	"tokenwheel.ai/internal/sim/catalogs"
	"tokenwheel.ai/internal/sim/collision"
	"tokenwheel.ai/internal/sim/tuning"
	"tokenwheel.ai/internal/sim/world"
)

func startServer(t *testing.T) (*world.World, *httptest.Server) {
	t.Helper()
	cats, err := catalogs.Load(filepath.Join("..", "..", "..", "configs"), nil)
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	tun := tuning.Defaults()
	w := world.New(world.Config{Tuning: tun, Catalogs: cats, Walk: collision.Open})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()
	srv := httptest.NewServer(NewServer(w, tun.RateLimits, nil).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return w, srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn, codec protocol.Codec) protocol.ServerMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	typ, b, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := websocket.TextMessage
	if codec.Binary() {
		want = websocket.BinaryMessage
	}
	if typ != want {
		t.Fatalf("frame type=%d want %d", typ, want)
	}
	var msg protocol.ServerMessage
	if err := codec.Unmarshal(b, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestServer_JSONSessionWelcomeAndInput(t *testing.T) {
	w, srv := startServer(t)
	conn := dial(t, srv, "?codec=json")

	msg := readMsg(t, conn, protocol.CodecJSON)
	if msg.Type != protocol.TypeWelcome || msg.Welcome == nil {
		t.Fatalf("first message=%+v", msg)
	}
	if msg.Welcome.SessionID == "" || msg.Welcome.ProtocolVersion != protocol.Version || msg.Welcome.Catalogs.Buildings == "" {
		t.Fatalf("welcome=%+v", *msg.Welcome)
	}

	msg = readMsg(t, conn, protocol.CodecJSON)
	if msg.Type != protocol.TypeGameState || msg.GameState == nil {
		t.Fatalf("second message=%+v", msg)
	}

	b, err := protocol.CodecJSON.Marshal(protocol.PlayerInput{Action: &protocol.PlayerAction{Kind: protocol.ActCrankStart}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(3 * time.Second)
	for w.Metrics().Heat == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("crank input never reached the world")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestServer_MsgpackDefaultAndTakeover(t *testing.T) {
	w, srv := startServer(t)
	first := dial(t, srv, "")
	if msg := readMsg(t, first, protocol.CodecMsgpack); msg.Type != protocol.TypeWelcome {
		t.Fatalf("first welcome=%+v", msg)
	}

	second := dial(t, srv, "")
	if msg := readMsg(t, second, protocol.CodecMsgpack); msg.Type != protocol.TypeWelcome {
		t.Fatalf("second welcome=%+v", msg)
	}

	// The first session is closed once the second takes over.
	_ = first.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		if _, _, err := first.ReadMessage(); err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				t.Fatalf("replaced session still open")
			}
			break
		}
	}

	if msg := readMsg(t, second, protocol.CodecMsgpack); msg.Type != protocol.TypeGameState {
		t.Fatalf("second session not receiving state: %+v", msg)
	}
	if !w.Metrics().Client {
		t.Fatalf("world lost its client")
	}
}

func TestServer_RejectsUnknownCodec(t *testing.T) {
	_, srv := startServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?codec=xml"
	if _, resp, err := websocket.DefaultDialer.Dial(url, nil); err == nil || resp == nil || resp.StatusCode != 400 {
		t.Fatalf("want 400, err=%v resp=%v", err, resp)
	}
}
