package status

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"

	"hullsim.ai/internal/protocol"
	"hullsim.ai/internal/sim/world"
)

// Server exposes loopback-only HTTP endpoints for operators and the admin
// CLI: a bootstrap document describing the running world, and a small status
// probe. Everything served here is immutable after startup or atomically
// readable, so no coordination with the world loop is needed.
type Server struct {
	world *world.World
	log   *log.Logger
}

func NewServer(w *world.World, logger *log.Logger) *Server {
	return &Server{world: w, log: logger}
}

type BootstrapResponse struct {
	ProtocolVersion string      `json:"protocol_version"`
	WorldID         string      `json:"world_id"`
	Tick            uint64      `json:"tick"`
	WorldParams     WorldParams `json:"world_params"`
	MaterialPalette []string    `json:"material_palette"`
}

type WorldParams struct {
	TickRateHz int   `json:"tick_rate_hz"`
	Seed       int64 `json:"seed"`
	MaxShips   int   `json:"max_ships"`
	MaxClients int   `json:"max_clients"`
}

type StatusResponse struct {
	WorldID string `json:"world_id"`
	Tick    uint64 `json:"tick"`
}

func (s *Server) BootstrapHandler(tickRateHz int) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		cfg := s.world.Config()
		resp := BootstrapResponse{
			ProtocolVersion: protocol.Version,
			WorldID:         cfg.ID,
			Tick:            s.world.CurrentTick(),
			WorldParams: WorldParams{
				TickRateHz: tickRateHz,
				Seed:       cfg.Seed,
				MaxShips:   cfg.MaxShips,
				MaxClients: cfg.MaxClients,
			},
			MaterialPalette: s.world.MaterialPalette(),
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) StatusHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(StatusResponse{
			WorldID: s.world.Config().ID,
			Tick:    s.world.CurrentTick(),
		})
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
