package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	// WantFrames false subscribes to WORLD/ACK only (a headless driver).
	WantFrames bool `json:"want_frames,omitempty"`
	// MaxFrameRate caps FRAME messages per second; 0 means every frame tick.
	MaxFrameRate int `json:"max_frame_rate,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	WorldParams     WorldParams    `json:"world_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
	Ships           []ShipRef      `json:"ships"`
}

type WorldParams struct {
	TickRateHz      int     `json:"tick_rate_hz"`
	FrameEveryTicks int     `json:"frame_every_ticks"`
	SeaDepth        float64 `json:"sea_depth"`
	WaveHeight      float64 `json:"wave_height"`
	Seed            int64   `json:"seed"`
}

type CatalogDigests struct {
	Materials DigestRef `json:"materials"`
}

type DigestRef struct {
	Digest string `json:"digest"`
	Count  int    `json:"count"`
}

type ShipRef struct {
	ShipID    int32  `json:"ship_id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Springs   int    `json:"springs"`
	Triangles int    `json:"triangles"`
}

// CATALOG (server -> client): one catalog as a single part.
type CatalogMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Name            string      `json:"name"`   // e.g. "materials"
	Digest          string      `json:"digest"` // sha256 hex
	Data            interface{} `json:"data"`
}

// WORLD (server -> client): per-frame environment state shared by all ships.
type WorldMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	WindX           float64 `json:"wind_x"`
	WindY           float64 `json:"wind_y"`

	// Ocean surface heights sampled over [surface_x0, surface_x0+n*surface_dx),
	// base64 little-endian float32.
	SurfaceX0 float64 `json:"surface_x0"`
	SurfaceDX float64 `json:"surface_dx"`
	Surface   string  `json:"surface"`

	// StateDigest is present on digest ticks only; replay verification keys
	// off it.
	StateDigest string `json:"state_digest,omitempty"`
}

// FRAME (server -> client): one ship's render buffers. Attribute buffers are
// base64 little-endian scalars (see internal/sim/encoding). Topology buffers
// are present only when topology_changed; the client keeps its previous
// copies otherwise.
type FrameMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Tick            uint64 `json:"tick"`
	ShipID          int32  `json:"ship_id"`
	PointCount      int    `json:"point_count"`

	Positions    string `json:"positions"`    // f32 x,y interleaved
	LightWater   string `json:"light_water"`  // f32 light,water interleaved
	Temperatures string `json:"temperatures"` // f32

	TopologyChanged  bool   `json:"topology_changed"`
	Colors           string `json:"colors,omitempty"`            // u32 rgba
	PlaneIDs         string `json:"plane_ids,omitempty"`         // i32
	SpringElements   string `json:"spring_elements,omitempty"`   // i32 pairs
	TriangleElements string `json:"triangle_elements,omitempty"` // i32 triples

	StressedSprings []int32 `json:"stressed_springs,omitempty"`

	EphemeralTypes     string `json:"ephemeral_types,omitempty"`     // raw bytes
	EphemeralPositions string `json:"ephemeral_positions,omitempty"` // f32 x,y
}

// ACT (client -> server): a batch of tool applications.
type ActMsg struct {
	Type            string    `json:"type"`
	ProtocolVersion string    `json:"protocol_version"`
	ActID           string    `json:"act_id"`
	Tools           []ToolReq `json:"tools"`
}

// Tool request types.
const (
	ToolDestroy   = "DESTROY"
	ToolRepair    = "REPAIR"
	ToolSaw       = "SAW"
	ToolDraw      = "DRAW"
	ToolSwirl     = "SWIRL"
	ToolPin       = "PIN"
	ToolFlood     = "FLOOD"
	ToolScrub     = "SCRUB"
	ToolBubbles   = "BUBBLES"
	ToolBomb      = "BOMB"
	ToolTerraform = "TERRAFORM"
	ToolSpawnShip = "SPAWN_SHIP"
	ToolSetParam  = "SET_PARAM"
)

type ToolReq struct {
	Tool   string `json:"tool"`
	ShipID int32  `json:"ship_id,omitempty"` // segment/param tools may omit

	X float64 `json:"x,omitempty"`
	Y float64 `json:"y,omitempty"`
	// Segment tools (SAW, SCRUB, TERRAFORM) stroke from (x,y) to (x2,y2).
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	Strength float64 `json:"strength,omitempty"` // DRAW, SWIRL
	Quantity float64 `json:"quantity,omitempty"` // FLOOD

	// SPAWN_SHIP: file base name under the server's ship directory.
	Definition string `json:"definition,omitempty"`

	// SET_PARAM: a tuning field by yaml name.
	Param string  `json:"param,omitempty"`
	Value float64 `json:"value,omitempty"`
}

// ACK (server -> client)
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
	ShipID          int32  `json:"ship_id,omitempty"` // set by SPAWN_SHIP
}
