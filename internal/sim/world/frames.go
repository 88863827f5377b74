package world

import (
	"encoding/json"

	"hullsim.ai/internal/protocol"
	"hullsim.ai/internal/sim/encoding"
	"hullsim.ai/internal/sim/environment"
	"hullsim.ai/internal/sim/physics"
)

// broadcastFrames sends one WORLD message plus one FRAME per ship to every
// frame-subscribed client that is due this tick. Frame buffers are reused
// across ticks; encoding happens at most twice per ship (with and without
// topology buffers), not per client. Each client carries the topology
// version it last received per ship, so a client that was not due on the
// tick a breakage happened still gets the new index buffers on its next
// frame, and a client whose queue overflowed gets them re-sent.
func (w *World) broadcastFrames(nowTick uint64, wind environment.Vec2, digest string) {
	due := false
	for _, cl := range w.clients {
		if cl.WantFrames && nowTick%uint64(cl.EveryTicks) == 0 {
			due = true
			break
		}
	}
	if !due {
		return
	}

	worldRaw, _ := json.Marshal(w.buildWorldMsg(nowTick, wind, digest))

	type shipFrame struct {
		f    *physics.Frame
		lean []byte // frame without topology buffers
		topo []byte // frame with topology buffers, built on first need
	}
	frames := make([]*shipFrame, 0, len(w.ships))
	for _, sh := range w.ships {
		f := w.frames[sh.ID]
		if f == nil {
			f = &physics.Frame{}
			w.frames[sh.ID] = f
		}
		sh.EmitFrame(f)
		lean, err := json.Marshal(frameToMsg(f, false))
		if err != nil {
			continue
		}
		frames = append(frames, &shipFrame{f: f, lean: lean})
	}

	for _, cl := range w.clients {
		if !cl.WantFrames || nowTick%uint64(cl.EveryTicks) != 0 {
			continue
		}
		dropped := sendLatest(cl.Out, worldRaw)
		for _, sf := range frames {
			if cl.TopoSent[sf.f.ShipID] != sf.f.TopologyVersion {
				if sf.topo == nil {
					raw, err := json.Marshal(frameToMsg(sf.f, true))
					if err != nil {
						continue
					}
					sf.topo = raw
				}
				if sendLatest(cl.Out, sf.topo) {
					dropped = true
				}
				cl.TopoSent[sf.f.ShipID] = sf.f.TopologyVersion
			} else if sendLatest(cl.Out, sf.lean) {
				dropped = true
			}
		}
		if dropped {
			// The queue overflowed, so a topology frame may have been
			// displaced. Forget what was sent and re-send next time.
			for id := range cl.TopoSent {
				delete(cl.TopoSent, id)
			}
		}
	}
}

func (w *World) buildWorldMsg(nowTick uint64, wind environment.Vec2, digest string) protocol.WorldMsg {
	n := w.cfg.SurfaceSamples
	x0 := -w.cfg.SurfaceWindow
	dx := 2 * w.cfg.SurfaceWindow / float64(n)
	heights := make([]float32, n)
	for i := 0; i < n; i++ {
		heights[i] = float32(w.surface.HeightAt(x0 + float64(i)*dx))
	}
	return protocol.WorldMsg{
		Type:            protocol.TypeWorld,
		ProtocolVersion: protocol.Version,
		Tick:            nowTick,
		WindX:           wind.X,
		WindY:           wind.Y,
		SurfaceX0:       x0,
		SurfaceDX:       dx,
		Surface:         encoding.EncodeF32(heights),
		StateDigest:     digest,
	}
}

func frameToMsg(f *physics.Frame, withTopology bool) protocol.FrameMsg {
	msg := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            f.Tick,
		ShipID:          f.ShipID,
		PointCount:      len(f.Positions) / 2,
		Positions:       encoding.EncodeF32(f.Positions),
		LightWater:      encoding.EncodeF32(f.LightWater),
		Temperatures:    encoding.EncodeF32(f.Temperatures),
		TopologyChanged: withTopology,
		StressedSprings: f.StressedSprings,
	}
	if withTopology {
		msg.Colors = encoding.EncodeU32(f.Colors)
		msg.PlaneIDs = encoding.EncodeI32(f.PlaneIDs)
		msg.SpringElements = encoding.EncodeI32(f.SpringElements)
		msg.TriangleElements = encoding.EncodeI32(f.TriangleElements)
	}
	if len(f.EphemeralTypes) > 0 {
		msg.EphemeralTypes = encoding.EncodeBytes(f.EphemeralTypes)
		msg.EphemeralPositions = encoding.EncodeF32(f.EphemeralPositions)
	}
	return msg
}
