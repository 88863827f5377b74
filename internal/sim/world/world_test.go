package world

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"hullsim.ai/internal/persistence/snapshot"
	"hullsim.ai/internal/protocol"
	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/tuning"
)

func configsDir(t *testing.T) string {
	t.Helper()
	return filepath.Join("..", "..", "..", "configs")
}

func newTestWorld(t *testing.T, cfg WorldConfig) *World {
	t.Helper()
	db, err := materials.Load(filepath.Join(configsDir(t), "materials.json"))
	if err != nil {
		t.Fatalf("load materials: %v", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	if cfg.ShipDir == "" {
		cfg.ShipDir = filepath.Join(configsDir(t), "ships")
	}
	params := tuning.Defaults()
	params.FrameEveryTicks = 1
	return New(cfg, params, db)
}

func addRaft(t *testing.T, w *World) int32 {
	t.Helper()
	sh, err := w.AddShip(filepath.Join(configsDir(t), "ships", "log_raft.json"))
	if err != nil {
		t.Fatalf("add ship: %v", err)
	}
	return sh.ID
}

func joinClient(t *testing.T, w *World, caps protocol.HelloCapabilities) (string, chan []byte) {
	t.Helper()
	out := make(chan []byte, 64)
	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{ClientName: "test", Caps: caps, Out: out, Resp: resp}}, nil, nil)
	jr := <-resp
	if jr.SessionID == "" {
		t.Fatalf("join refused")
	}
	// Discard anything broadcast during the join tick.
	for len(out) > 0 {
		<-out
	}
	return jr.SessionID, out
}

func readAck(t *testing.T, out chan []byte) protocol.AckMsg {
	t.Helper()
	for len(out) > 0 {
		raw := <-out
		base, err := protocol.DecodeBase(raw)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if base.Type != protocol.TypeAck {
			continue
		}
		var ack protocol.AckMsg
		if err := json.Unmarshal(raw, &ack); err != nil {
			t.Fatalf("unmarshal ack: %v", err)
		}
		return ack
	}
	t.Fatalf("no ACK received")
	return protocol.AckMsg{}
}

func actOne(t *testing.T, w *World, session string, req protocol.ToolReq) {
	t.Helper()
	act := protocol.ActMsg{Type: protocol.TypeAct, ActID: "A1", Tools: []protocol.ToolReq{req}}
	w.StepOnce(nil, nil, []ActEnvelope{{SessionID: session, Act: act}})
}

func TestWorld_DeterministicReplay(t *testing.T) {
	run := func() []string {
		w := newTestWorld(t, WorldConfig{})
		shipID := addRaft(t, w)

		var digests []string
		for i := 0; i < 32; i++ {
			var acts []ActEnvelope
			if i == 3 {
				acts = []ActEnvelope{{SessionID: "S1", Act: protocol.ActMsg{
					Type:  protocol.TypeAct,
					ActID: "A1",
					Tools: []protocol.ToolReq{{Tool: protocol.ToolDestroy, ShipID: shipID, X: 0, Y: 0}},
				}}}
			}
			_, digest := w.StepOnce(nil, nil, acts)
			digests = append(digests, digest)
		}
		return digests
	}

	first := run()
	second := run()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("digest diverged at step %d:\n%s\n%s", i, first[i], second[i])
		}
	}
}

func TestWorld_JoinWelcome(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	addRaft(t, w)

	out := make(chan []byte, 16)
	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{
		ClientName: "viewer",
		Caps:       protocol.HelloCapabilities{WantFrames: true, MaxFrameRate: 16},
		Out:        out,
		Resp:       resp,
	}}, nil, nil)
	jr := <-resp

	if jr.SessionID != "S1" {
		t.Fatalf("session id %q", jr.SessionID)
	}
	if jr.Welcome.WorldParams.TickRateHz != 64 {
		t.Fatalf("tick rate %d", jr.Welcome.WorldParams.TickRateHz)
	}
	if jr.Welcome.Catalogs.Materials.Digest != w.db.Digest {
		t.Fatalf("catalog digest mismatch")
	}
	if len(jr.Welcome.Ships) != 1 || jr.Welcome.Ships[0].Points == 0 {
		t.Fatalf("ship refs %+v", jr.Welcome.Ships)
	}
	if len(jr.Catalogs) != 1 || jr.Catalogs[0].Name != "materials" {
		t.Fatalf("catalogs %+v", jr.Catalogs)
	}
	cl := w.clients["S1"]
	if cl == nil || cl.EveryTicks != 4 {
		t.Fatalf("client state %+v", cl)
	}
}

func TestWorld_JoinCapacity(t *testing.T) {
	w := newTestWorld(t, WorldConfig{MaxClients: 1})
	joinClient(t, w, protocol.HelloCapabilities{})

	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{ClientName: "second", Out: make(chan []byte, 1), Resp: resp}}, nil, nil)
	if jr := <-resp; jr.SessionID != "" {
		t.Fatalf("over-capacity join accepted as %q", jr.SessionID)
	}
}

func TestWorld_ActAcks(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	shipID := addRaft(t, w)
	session, out := joinClient(t, w, protocol.HelloCapabilities{})

	cases := []struct {
		name string
		req  protocol.ToolReq
		code string
	}{
		{"destroy ok", protocol.ToolReq{Tool: protocol.ToolDestroy, ShipID: shipID, X: 0, Y: 0}, ""},
		{"unknown ship", protocol.ToolReq{Tool: protocol.ToolDestroy, ShipID: 999, X: 0, Y: 0}, protocol.ErrUnknownShip},
		{"unknown tool", protocol.ToolReq{Tool: "TRACTOR_BEAM", ShipID: shipID}, protocol.ErrUnknownTool},
		{"unknown param", protocol.ToolReq{Tool: protocol.ToolSetParam, Param: "tick_rate_hz", Value: 1}, protocol.ErrUnknownParam},
		{"bad spawn", protocol.ToolReq{Tool: protocol.ToolSpawnShip, Definition: "no_such_ship"}, protocol.ErrShipLoad},
		{"pin far away", protocol.ToolReq{Tool: protocol.ToolPin, ShipID: shipID, X: 9000, Y: 9000}, protocol.ErrInvalidTarget},
	}
	for _, tc := range cases {
		actOne(t, w, session, tc.req)
		ack := readAck(t, out)
		if tc.code == "" {
			if !ack.Accepted {
				t.Fatalf("%s: rejected with %s %q", tc.name, ack.Code, ack.Message)
			}
			continue
		}
		if ack.Accepted || ack.Code != tc.code {
			t.Fatalf("%s: got accepted=%v code=%s want %s", tc.name, ack.Accepted, ack.Code, tc.code)
		}
		if !protocol.IsKnownCode(ack.Code) {
			t.Fatalf("%s: unknown code %s", tc.name, ack.Code)
		}
	}

	// Empty batch.
	w.StepOnce(nil, nil, []ActEnvelope{{SessionID: session, Act: protocol.ActMsg{Type: protocol.TypeAct, ActID: "A2"}}})
	if ack := readAck(t, out); ack.Accepted || ack.Code != protocol.ErrBadRequest {
		t.Fatalf("empty batch: %+v", ack)
	}
}

func TestWorld_SpawnShipAct(t *testing.T) {
	w := newTestWorld(t, WorldConfig{MaxShips: 2})
	addRaft(t, w)
	session, out := joinClient(t, w, protocol.HelloCapabilities{})

	actOne(t, w, session, protocol.ToolReq{Tool: protocol.ToolSpawnShip, Definition: "coastal_barge"})
	ack := readAck(t, out)
	if !ack.Accepted || ack.ShipID == 0 {
		t.Fatalf("spawn: %+v", ack)
	}
	if len(w.ships) != 2 {
		t.Fatalf("ship count %d", len(w.ships))
	}

	actOne(t, w, session, protocol.ToolReq{Tool: protocol.ToolSpawnShip, Definition: "log_raft"})
	if ack := readAck(t, out); ack.Accepted || ack.Code != protocol.ErrCapacity {
		t.Fatalf("over-capacity spawn: %+v", ack)
	}
	if len(w.ships) != 2 {
		t.Fatalf("over-capacity spawn changed ship count to %d", len(w.ships))
	}
}

func TestWorld_AddShipErrorIsolation(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	id := addRaft(t, w)

	before := w.nextShipID
	if _, err := w.AddShip(filepath.Join(configsDir(t), "ships", "missing.json")); err == nil {
		t.Fatalf("expected load error")
	}
	if w.nextShipID != before {
		t.Fatalf("failed load consumed ship id")
	}
	if len(w.ships) != 1 || w.ships[0].ID != id {
		t.Fatalf("failed load disturbed fleet")
	}
	w.StepOnce(nil, nil, nil)
}

func TestWorld_SetParamLive(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	session, out := joinClient(t, w, protocol.HelloCapabilities{})

	actOne(t, w, session, protocol.ToolReq{Tool: protocol.ToolSetParam, Param: "strength_adjustment", Value: 0.25})
	if ack := readAck(t, out); !ack.Accepted {
		t.Fatalf("set_param rejected: %+v", ack)
	}
	if w.params.StrengthAdjustment != 0.25 {
		t.Fatalf("strength_adjustment = %v", w.params.StrengthAdjustment)
	}

	actOne(t, w, session, protocol.ToolReq{Tool: protocol.ToolSetParam, Param: "ultra_violent_mode", Value: 1})
	readAck(t, out)
	if !w.params.UltraViolentMode {
		t.Fatalf("ultra_violent_mode did not flip")
	}
}

func TestWorld_SlowClientTopologyCatchUp(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	shipID := addRaft(t, w)

	fast, fastOut := joinClient(t, w, protocol.HelloCapabilities{WantFrames: true})
	_, slowOut := joinClient(t, w, protocol.HelloCapabilities{WantFrames: true, MaxFrameRate: 32})

	readFrames := func(out chan []byte) []protocol.FrameMsg {
		var frames []protocol.FrameMsg
		for len(out) > 0 {
			raw := <-out
			base, err := protocol.DecodeBase(raw)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if base.Type != protocol.TypeFrame {
				continue
			}
			var msg protocol.FrameMsg
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("frame msg: %v", err)
			}
			frames = append(frames, msg)
		}
		return frames
	}

	// Line the clock up so the breakage lands on a tick the slow client
	// (every second tick) skips.
	for w.CurrentTick()%2 == 0 {
		w.StepOnce(nil, nil, nil)
	}
	for len(fastOut) > 0 {
		<-fastOut
	}
	for len(slowOut) > 0 {
		<-slowOut
	}

	actOne(t, w, fast, protocol.ToolReq{Tool: protocol.ToolDestroy, ShipID: shipID, X: 0, Y: 0})

	fastFrames := readFrames(fastOut)
	if len(fastFrames) == 0 || !fastFrames[0].TopologyChanged {
		t.Fatalf("fast client missed the breakage frame: %+v", fastFrames)
	}
	if got := readFrames(slowOut); len(got) != 0 {
		t.Fatalf("slow client received %d frames on a tick it skips", len(got))
	}

	w.StepOnce(nil, nil, nil)

	slowFrames := readFrames(slowOut)
	if len(slowFrames) == 0 {
		t.Fatalf("slow client got no frame on its due tick")
	}
	if !slowFrames[0].TopologyChanged || slowFrames[0].SpringElements == "" {
		t.Fatalf("slow client never caught up on topology: %+v", slowFrames[0])
	}
	fastFrames = readFrames(fastOut)
	if len(fastFrames) == 0 || fastFrames[0].TopologyChanged {
		t.Fatalf("fast client should get a lean frame once caught up")
	}
}

func TestWorld_FrameBroadcast(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	addRaft(t, w)

	out := make(chan []byte, 64)
	resp := make(chan JoinResponse, 1)
	w.StepOnce([]JoinRequest{{
		ClientName: "viewer",
		Caps:       protocol.HelloCapabilities{WantFrames: true},
		Out:        out,
		Resp:       resp,
	}}, nil, nil)
	<-resp

	// The join tick broadcasts the first frame, which must carry topology.
	var worlds, frames int
	var first protocol.FrameMsg
	for len(out) > 0 {
		raw := <-out
		base, _ := protocol.DecodeBase(raw)
		switch base.Type {
		case protocol.TypeWorld:
			worlds++
			var msg protocol.WorldMsg
			if err := json.Unmarshal(raw, &msg); err != nil {
				t.Fatalf("world msg: %v", err)
			}
			if msg.Surface == "" {
				t.Fatalf("world msg missing surface strip")
			}
		case protocol.TypeFrame:
			frames++
			if frames == 1 {
				if err := json.Unmarshal(raw, &first); err != nil {
					t.Fatalf("frame msg: %v", err)
				}
			}
		}
	}
	if worlds != 1 || frames != 1 {
		t.Fatalf("got %d WORLD, %d FRAME", worlds, frames)
	}
	if !first.TopologyChanged || first.SpringElements == "" || first.TriangleElements == "" {
		t.Fatalf("first frame must carry topology buffers: %+v", first.TopologyChanged)
	}
	if first.PointCount == 0 || first.Positions == "" {
		t.Fatalf("frame missing attributes")
	}

	w.StepOnce(nil, nil, nil)
	for len(out) > 0 {
		raw := <-out
		base, _ := protocol.DecodeBase(raw)
		if base.Type != protocol.TypeFrame {
			continue
		}
		var msg protocol.FrameMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("frame msg: %v", err)
		}
		if msg.TopologyChanged || msg.SpringElements != "" {
			t.Fatalf("clean frame re-sent topology buffers")
		}
	}
}

func TestWorld_SnapshotRoundtrip(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	shipID := addRaft(t, w)

	// Run with a topology change so the snapshot has to carry broken springs.
	for i := 0; i < 16; i++ {
		var acts []ActEnvelope
		if i == 4 {
			acts = []ActEnvelope{{SessionID: "S1", Act: protocol.ActMsg{
				Type:  protocol.TypeAct,
				ActID: "A1",
				Tools: []protocol.ToolReq{{Tool: protocol.ToolDestroy, ShipID: shipID, X: 0, Y: 0}},
			}}}
		}
		w.StepOnce(nil, nil, acts)
	}

	snapTick := w.CurrentTick()
	snap := w.ExportSnapshot(snapTick)

	path := filepath.Join(t.TempDir(), "world.snap.zst")
	if err := snapshot.WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	restored, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if restored.Header.Tick != snapTick {
		t.Fatalf("snapshot tick %d want %d", restored.Header.Tick, snapTick)
	}

	w2 := newTestWorld(t, WorldConfig{})
	if err := w2.ImportSnapshot(restored); err != nil {
		t.Fatalf("import snapshot: %v", err)
	}
	if w2.CurrentTick() != snapTick {
		t.Fatalf("imported tick %d want %d", w2.CurrentTick(), snapTick)
	}
	if got, want := w2.stateDigest(snapTick), w.stateDigest(snapTick); got != want {
		t.Fatalf("state digest after import:\n%s\n%s", got, want)
	}

	// Both worlds must evolve identically from the restored state.
	for i := 0; i < 16; i++ {
		_, d1 := w.StepOnce(nil, nil, nil)
		_, d2 := w2.StepOnce(nil, nil, nil)
		if d1 != d2 {
			t.Fatalf("post-restore digest diverged at step %d", i)
		}
	}
}

func TestWorld_ImportRejectsWrongCatalog(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	addRaft(t, w)
	snap := w.ExportSnapshot(0)
	snap.MaterialsDigest = "deadbeef"
	if err := w.ImportSnapshot(snap); err == nil {
		t.Fatalf("expected digest mismatch error")
	}
}

func TestWorld_ImportRejectsCorruptIndices(t *testing.T) {
	w := newTestWorld(t, WorldConfig{})
	addRaft(t, w)
	base := w.ExportSnapshot(0)

	corrupt := func(mut func(s *snapshot.ShipV1)) error {
		snap := w.ExportSnapshot(0)
		mut(&snap.Ships[0])
		return w.ImportSnapshot(snap)
	}

	if err := corrupt(func(s *snapshot.ShipV1) { s.PointA[0] = int32(len(base.Ships[0].PosX)) }); err == nil {
		t.Fatalf("expected error for spring endpoint out of range")
	}
	if err := corrupt(func(s *snapshot.ShipV1) { s.PointB[0] = -1 }); err == nil {
		t.Fatalf("expected error for negative spring endpoint")
	}
	if err := corrupt(func(s *snapshot.ShipV1) { s.TriC[0] = 1 << 20 }); err == nil {
		t.Fatalf("expected error for triangle corner out of range")
	}
	if err := corrupt(func(s *snapshot.ShipV1) {
		s.BombPoints = append(s.BombPoints, 1<<20)
		s.BombFuses = append(s.BombFuses, 10)
	}); err == nil {
		t.Fatalf("expected error for bomb point out of range")
	}

	// The world must still be importable from an intact snapshot.
	if err := w.ImportSnapshot(base); err != nil {
		t.Fatalf("intact snapshot rejected: %v", err)
	}
}
