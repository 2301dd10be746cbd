package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"tokenwheel.ai/internal/protocol"
)

// A smoke-test client: it cranks the wheel, backing off near max heat, and
// logs the economy every few seconds.
func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		codecArg = flag.String("codec", "msgpack", "frame codec: msgpack or json")
		every    = flag.Uint64("log_every", 100, "log the economy every N ticks")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	codec, err := protocol.ParseCodec(*codecArg)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	conn, _, err := websocket.DefaultDialer.Dial(*url+"?codec="+string(codec), nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	b := &bot{conn: conn, codec: codec, log: logger, every: *every}
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Printf("disconnected: %v", err)
			return
		}
		var m protocol.ServerMessage
		if err := codec.Unmarshal(msg, &m); err != nil {
			continue
		}
		switch {
		case m.Welcome != nil:
			logger.Printf("WELCOME session=%s protocol=%s tick_rate=%d seed=%d", m.Welcome.SessionID, m.Welcome.ProtocolVersion, m.Welcome.TickRateHz, m.Welcome.Seed)
		case m.GameState != nil:
			b.onState(m.GameState)
		}
	}
}

type bot struct {
	conn     *websocket.Conn
	codec    protocol.Codec
	log      *log.Logger
	every    uint64
	cranking bool
}

// Cranking stops above 90% heat and resumes below 30%.
func (b *bot) onState(u *protocol.GameStateUpdate) {
	if u.Tick%b.every == 0 {
		b.log.Printf("tick=%d balance=%d income/s=%.2f heat=%.1f/%.0f tier=%s entities=%d",
			u.Tick, u.Economy.Balance, u.Economy.IncomePerSec, u.Wheel.Heat, u.Wheel.MaxHeat, u.Wheel.Tier, len(u.EntitiesChanged))
	}
	if u.Player.Dead {
		b.cranking = false
		return
	}
	heat := 0.0
	if u.Wheel.MaxHeat > 0 {
		heat = u.Wheel.Heat / u.Wheel.MaxHeat
	}
	switch {
	case !b.cranking && heat < 0.3:
		b.send(u.Tick, protocol.ActCrankStart)
		b.cranking = true
	case b.cranking && heat > 0.9:
		b.send(u.Tick, protocol.ActCrankStop)
		b.cranking = false
	}
}

func (b *bot) send(tick uint64, kind string) {
	msg, err := b.codec.Marshal(protocol.PlayerInput{Tick: tick, Action: &protocol.PlayerAction{Kind: kind}})
	if err != nil {
		return
	}
	frame := websocket.TextMessage
	if b.codec.Binary() {
		frame = websocket.BinaryMessage
	}
	_ = b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := b.conn.WriteMessage(frame, msg); err != nil {
		b.log.Printf("send %s: %v", kind, err)
	}
}
