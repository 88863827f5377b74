package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"

	"hullsim.ai/internal/protocol"
)

// A small driver client: joins a world, optionally spawns a ship, and pokes
// it with tools at a steady rate. Useful for soak-testing a server.
func main() {
	var (
		url   = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name  = flag.String("name", "bot", "client name")
		spawn = flag.String("spawn", "", "ship definition base name to spawn on join (optional)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ClientName:      *name,
		Capabilities: protocol.HelloCapabilities{
			WantFrames:   true,
			MaxFrameRate: 8,
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	var shipID int32
	actSeq := 0

	sendAct := func(tools ...protocol.ToolReq) {
		actSeq++
		act := protocol.ActMsg{
			Type:            protocol.TypeAct,
			ProtocolVersion: protocol.Version,
			ActID:           fmt.Sprintf("A%d", actSeq),
			Tools:           tools,
		}
		_ = conn.WriteJSON(act)
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s tick_rate=%d seed=%d ships=%d",
				w.SessionID, w.WorldParams.TickRateHz, w.WorldParams.Seed, len(w.Ships))
			if len(w.Ships) > 0 {
				shipID = w.Ships[0].ShipID
			}
			if *spawn != "" {
				sendAct(protocol.ToolReq{Tool: protocol.ToolSpawnShip, Definition: *spawn})
			}

		case protocol.TypeAck:
			var ack protocol.AckMsg
			if err := json.Unmarshal(msg, &ack); err != nil {
				continue
			}
			if !ack.Accepted {
				logger.Printf("ACK %s rejected: %s %s", ack.AckFor, ack.Code, ack.Message)
				continue
			}
			if ack.ShipID != 0 {
				shipID = ack.ShipID
				logger.Printf("ship spawned id=%d", shipID)
			}

		case protocol.TypeFrame:
			var f protocol.FrameMsg
			if err := json.Unmarshal(msg, &f); err != nil {
				continue
			}
			if shipID == 0 || f.ShipID != shipID {
				continue
			}
			pokeShip(sendAct, r, shipID, f.Tick)
		}
	}
}

func pokeShip(sendAct func(...protocol.ToolReq), r *rand.Rand, shipID int32, tick uint64) {
	x := r.Float64()*20 - 10
	y := r.Float64()*6 - 4

	switch {
	case tick%640 == 0:
		sendAct(protocol.ToolReq{Tool: protocol.ToolDestroy, ShipID: shipID, X: x, Y: y})
	case tick%256 == 0:
		sendAct(protocol.ToolReq{Tool: protocol.ToolRepair, ShipID: shipID, X: x, Y: y})
	case tick%128 == 0:
		sendAct(protocol.ToolReq{Tool: protocol.ToolSwirl, ShipID: shipID, X: x, Y: y})
	case tick%64 == 0:
		sendAct(protocol.ToolReq{Tool: protocol.ToolDraw, ShipID: shipID, X: x, Y: y})
	}
}
