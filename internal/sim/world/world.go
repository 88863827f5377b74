package world

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"hullsim.ai/internal/persistence/snapshot"
	"hullsim.ai/internal/protocol"
	"hullsim.ai/internal/shipdef"
	"hullsim.ai/internal/sim/environment"
	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/physics"
	"hullsim.ai/internal/sim/tuning"
)

// World is a single-threaded authoritative simulation. All state must be
// accessed only from the world loop goroutine; clients talk to it through
// channels.
type World struct {
	cfg    WorldConfig
	params tuning.Params
	db     *materials.Database

	tick atomic.Uint64

	surface *environment.OceanSurface
	floor   *environment.OceanFloor
	wind    *environment.Wind
	clouds  *environment.Clouds
	stars   *environment.Stars

	ships      []*physics.Ship
	nextShipID int32

	clients map[string]*clientState

	inbox chan ActEnvelope
	join  chan JoinRequest
	leave chan string
	stop  chan struct{}

	nextSessionNum atomic.Uint64

	// Optional loggers (may be nil). Implemented in internal/persistence/*.
	tickLogger  TickLogger
	auditLogger AuditLogger

	// Optional snapshot sink (may be nil). Snapshot writing is off-thread.
	snapshotSink chan<- SnapshotRequest

	lastDigest string

	// Frame scratch buffers, reused across ticks.
	frames map[int32]*physics.Frame
}

type TickLogger interface {
	WriteTick(entry TickLogEntry) error
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type TickLogEntry struct {
	Tick   uint64            `json:"tick"`
	Acts   []RecordedAct     `json:"acts,omitempty"`
	Digest string            `json:"digest,omitempty"`
	Ships  []RecordedShipRef `json:"ships,omitempty"`
}

type RecordedAct struct {
	SessionID string          `json:"session_id"`
	Act       protocol.ActMsg `json:"act"`
}

type RecordedShipRef struct {
	ShipID int32  `json:"ship_id"`
	Name   string `json:"name"`
}

type AuditEntry struct {
	Tick    uint64  `json:"tick"`
	Actor   string  `json:"actor"`
	Tool    string  `json:"tool"`
	ShipID  int32   `json:"ship_id,omitempty"`
	X       float64 `json:"x,omitempty"`
	Y       float64 `json:"y,omitempty"`
	Outcome string  `json:"outcome,omitempty"`
}

// SnapshotRequest asks the off-thread writer to persist a snapshot.
type SnapshotRequest struct {
	Tick uint64
	Data snapshot.SnapshotV1
}

type clientState struct {
	Out        chan []byte
	WantFrames bool
	EveryTicks int // derived from max_frame_rate

	// TopoSent maps ship ID to the topology version last sent to this
	// client. A missing entry means the client has never seen the ship.
	TopoSent map[int32]uint64
}

type ActEnvelope struct {
	SessionID string
	Act       protocol.ActMsg
}

type JoinRequest struct {
	ClientName string
	Caps       protocol.HelloCapabilities
	Out        chan []byte
	Resp       chan JoinResponse
}

type JoinResponse struct {
	SessionID string
	Welcome   protocol.WelcomeMsg
	Catalogs  []protocol.CatalogMsg
}

func New(cfg WorldConfig, params tuning.Params, db *materials.Database) *World {
	cfg.applyDefaults()
	w := &World{
		cfg:     cfg,
		params:  params,
		db:      db,
		surface: environment.NewOceanSurface(&params),
		floor:   environment.NewOceanFloor(cfg.Seed, &params),
		wind:    environment.NewWind(cfg.Seed, &params),
		clouds:  environment.NewClouds(cfg.Seed, 24),
		stars:   environment.NewStars(cfg.Seed, 256),
		clients: map[string]*clientState{},
		inbox:   make(chan ActEnvelope, 1024),
		join:    make(chan JoinRequest, 64),
		leave:   make(chan string, 64),
		stop:    make(chan struct{}),
		frames:  map[int32]*physics.Frame{},
	}
	return w
}

func (w *World) SetTickLogger(l TickLogger)                { w.tickLogger = l }
func (w *World) SetAuditLogger(l AuditLogger)              { w.auditLogger = l }
func (w *World) SetSnapshotSink(ch chan<- SnapshotRequest) { w.snapshotSink = ch }

func (w *World) Inbox() chan<- ActEnvelope { return w.inbox }
func (w *World) Join() chan<- JoinRequest  { return w.join }
func (w *World) Leave() chan<- string      { return w.leave }

func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Config returns a copy of the world configuration. Safe cross-goroutine;
// the config never changes while the loop runs.
func (w *World) Config() WorldConfig { return w.cfg }

// MaterialPalette returns the color keys of the materials catalog.
func (w *World) MaterialPalette() []string { return w.db.Palette() }

// ClientCount reports connected sessions. Loop-goroutine only.
func (w *World) ClientCount() int { return len(w.clients) }

// AddShip loads a definition file and builds the ship. A failing definition
// must never take down ships already afloat, so all errors stay local.
func (w *World) AddShip(path string) (*physics.Ship, error) {
	if len(w.ships) >= w.cfg.MaxShips {
		return nil, fmt.Errorf("ship capacity reached (%d)", w.cfg.MaxShips)
	}
	def, err := shipdef.Load(path)
	if err != nil {
		return nil, err
	}
	grid, err := def.ToGrid(w.db)
	if err != nil {
		return nil, err
	}
	w.nextShipID++
	ox, oy := def.OffsetXY()
	sh, err := physics.NewShip(w.nextShipID, def.Name, grid, w.db, &w.params, ox, oy)
	if err != nil {
		w.nextShipID--
		return nil, err
	}
	w.ships = append(w.ships, sh)
	return sh, nil
}

func (w *World) shipByID(id int32) *physics.Ship {
	for _, sh := range w.ships {
		if sh.ID == id {
			return sh
		}
	}
	return nil
}

func (w *World) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(w.params.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var pendingActs []ActEnvelope
	var pendingJoins []JoinRequest
	var pendingLeaves []string

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stop:
			return nil
		case req := <-w.join:
			pendingJoins = append(pendingJoins, req)
		case id := <-w.leave:
			pendingLeaves = append(pendingLeaves, id)
		case env := <-w.inbox:
			pendingActs = append(pendingActs, env)
		case <-ticker.C:
			w.step(pendingJoins, pendingLeaves, pendingActs)
			pendingJoins = pendingJoins[:0]
			pendingLeaves = pendingLeaves[:0]
			pendingActs = pendingActs[:0]
		}
	}
}

func (w *World) Stop() { close(w.stop) }

func (w *World) step(joins []JoinRequest, leaves []string, acts []ActEnvelope) {
	nowTick := w.tick.Load()
	t := float64(nowTick) * w.params.Dt()

	// Session churn at the tick boundary, deterministically ordered.
	for _, id := range leaves {
		delete(w.clients, id)
	}
	for _, req := range joins {
		w.handleJoin(req, nowTick)
	}

	// Acts apply between ticks in server receive order.
	recorded := make([]RecordedAct, 0, len(acts))
	for _, env := range acts {
		recorded = append(recorded, RecordedAct{SessionID: env.SessionID, Act: env.Act})
		w.applyAct(env, nowTick)
	}

	// Environment advances before ships so every ship sees the same fields.
	w.surface.Update(t, &w.params)
	w.floor.Update(&w.params)
	w.wind.Update(t, &w.params)
	wind := w.wind.CurrentSpeed()
	w.clouds.Update(w.params.Dt(), wind.X)

	env := physics.Env{Ocean: w.surface, Floor: w.floor, WindX: wind.X, WindY: wind.Y}

	if w.params.ParallelShips && len(w.ships) > 1 {
		// Ships never touch each other's state, so they can step in
		// parallel. Everything else in the loop stays single-threaded.
		var wg sync.WaitGroup
		for _, sh := range w.ships {
			wg.Add(1)
			go func(sh *physics.Ship) {
				defer wg.Done()
				sh.Update(nowTick, t, env, &w.params)
			}(sh)
		}
		wg.Wait()
	} else {
		for _, sh := range w.ships {
			sh.Update(nowTick, t, env, &w.params)
		}
	}

	digest := ""
	if nowTick%uint64(w.cfg.DigestEveryTicks) == 0 {
		digest = w.stateDigest(nowTick)
		w.lastDigest = digest
	}

	if nowTick%uint64(w.params.FrameEveryTicks) == 0 {
		w.broadcastFrames(nowTick, wind, digest)
	}

	if w.tickLogger != nil && (len(recorded) > 0 || digest != "") {
		refs := make([]RecordedShipRef, 0, len(w.ships))
		for _, sh := range w.ships {
			refs = append(refs, RecordedShipRef{ShipID: sh.ID, Name: sh.Name})
		}
		_ = w.tickLogger.WriteTick(TickLogEntry{Tick: nowTick, Acts: recorded, Digest: digest, Ships: refs})
	}

	if w.snapshotSink != nil && nowTick != 0 && nowTick%uint64(w.params.SnapshotEveryTicks) == 0 {
		snap := w.ExportSnapshot(nowTick)
		select {
		case w.snapshotSink <- SnapshotRequest{Tick: nowTick, Data: snap}:
		default:
			// Drop the snapshot if the writer is backed up.
		}
	}

	w.tick.Add(1)
}

// StepOnce advances the world by a single tick with the same ordering as the
// server loop. Used by deterministic replays and tests.
func (w *World) StepOnce(joins []JoinRequest, leaves []string, acts []ActEnvelope) (tick uint64, digest string) {
	tick = w.tick.Load()
	w.step(joins, leaves, acts)
	return tick, w.stateDigest(tick)
}

func (w *World) handleJoin(req JoinRequest, nowTick uint64) {
	if len(w.clients) >= w.cfg.MaxClients {
		if req.Resp != nil {
			req.Resp <- JoinResponse{}
		}
		return
	}
	num := w.nextSessionNum.Add(1)
	sessionID := fmt.Sprintf("S%d", num)

	everyTicks := 1
	if req.Caps.MaxFrameRate > 0 {
		everyTicks = w.params.TickRateHz / req.Caps.MaxFrameRate
		if everyTicks < 1 {
			everyTicks = 1
		}
	}
	if req.Out != nil {
		w.clients[sessionID] = &clientState{
			Out:        req.Out,
			WantFrames: req.Caps.WantFrames,
			EveryTicks: everyTicks,
			TopoSent:   make(map[int32]uint64),
		}
	}

	ships := make([]protocol.ShipRef, 0, len(w.ships))
	for _, sh := range w.ships {
		ships = append(ships, protocol.ShipRef{
			ShipID:    sh.ID,
			Name:      sh.Name,
			Points:    sh.Points.Count,
			Springs:   sh.Springs.ActiveCount(),
			Triangles: len(sh.Triangles.Active),
		})
	}

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		WorldParams: protocol.WorldParams{
			TickRateHz:      w.params.TickRateHz,
			FrameEveryTicks: w.params.FrameEveryTicks,
			SeaDepth:        w.params.SeaDepth,
			WaveHeight:      w.params.WaveHeight,
			Seed:            w.cfg.Seed,
		},
		Catalogs: protocol.CatalogDigests{
			Materials: protocol.DigestRef{Digest: w.db.Digest, Count: len(w.db.Defs)},
		},
		Ships: ships,
	}

	catalogMsgs := []protocol.CatalogMsg{
		{
			Type:            protocol.TypeCatalog,
			ProtocolVersion: protocol.Version,
			Name:            "materials",
			Digest:          w.db.Digest,
			Data:            w.db.Defs,
		},
	}

	if req.Resp != nil {
		req.Resp <- JoinResponse{SessionID: sessionID, Welcome: welcome, Catalogs: catalogMsgs}
	}
}

// sendLatest pushes b, dropping the oldest queued message when the client is
// slow. Frames are latest-wins; a stale frame has no value. Returns true
// when anything was dropped, so callers can re-send what must not be lost.
func sendLatest(ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return false
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
	return true
}

func (w *World) sendTo(sessionID string, v any) {
	cl := w.clients[sessionID]
	if cl == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	sendLatest(cl.Out, b)
}
