package world

import (
	"fmt"
	"path/filepath"

	"hullsim.ai/internal/protocol"
	"hullsim.ai/internal/sim/physics"
)

// applyAct routes one ACT batch. The whole batch gets a single ACK: accepted
// when every tool applied, otherwise the first failure's code.
func (w *World) applyAct(env ActEnvelope, nowTick uint64) {
	act := env.Act
	ack := protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          act.ActID,
		Accepted:        true,
		ServerTick:      nowTick,
	}

	if len(act.Tools) == 0 {
		ack.Accepted = false
		ack.Code = protocol.ErrBadRequest
		ack.Message = "empty tool batch"
		w.sendTo(env.SessionID, ack)
		return
	}

	for _, req := range act.Tools {
		code, msg, shipID := w.applyTool(env.SessionID, req, nowTick)
		if code != "" && ack.Accepted {
			ack.Accepted = false
			ack.Code = code
			ack.Message = msg
		}
		if shipID != 0 {
			ack.ShipID = shipID
		}
	}
	w.sendTo(env.SessionID, ack)
}

// applyTool applies a single tool request. Returns an error code and message
// ("" on success), plus the new ship id for SPAWN_SHIP.
func (w *World) applyTool(actor string, req protocol.ToolReq, nowTick uint64) (code, msg string, shipID int32) {
	defer w.audit(nowTick, actor, req)

	// World-scoped tools first; everything else targets a ship.
	switch req.Tool {
	case protocol.ToolSpawnShip:
		if req.Definition == "" {
			return protocol.ErrBadRequest, "spawn: missing definition", 0
		}
		if len(w.ships) >= w.cfg.MaxShips {
			return protocol.ErrCapacity, fmt.Sprintf("ship capacity reached (%d)", w.cfg.MaxShips), 0
		}
		path := filepath.Join(w.cfg.ShipDir, req.Definition+".json")
		sh, err := w.AddShip(path)
		if err != nil {
			return protocol.ErrShipLoad, err.Error(), 0
		}
		return "", "", sh.ID

	case protocol.ToolTerraform:
		if !w.floor.AdjustTo(req.X, req.Y, req.X2, req.Y2) {
			return protocol.ErrInvalidTarget, "terraform: degenerate segment", 0
		}
		return "", "", 0

	case protocol.ToolSetParam:
		if err := w.setParam(req.Param, req.Value); err != nil {
			return protocol.ErrUnknownParam, err.Error(), 0
		}
		return "", "", 0
	}

	sh := w.shipByID(req.ShipID)
	if sh == nil {
		return protocol.ErrUnknownShip, fmt.Sprintf("no ship %d", req.ShipID), 0
	}

	switch req.Tool {
	case protocol.ToolDestroy:
		sh.DestroyAt(req.X, req.Y, &w.params)
	case protocol.ToolRepair:
		sh.RepairAt(req.X, req.Y, &w.params)
	case protocol.ToolSaw:
		sh.SawThrough(req.X, req.Y, req.X2, req.Y2)
	case protocol.ToolDraw:
		strength := req.Strength
		if strength == 0 {
			strength = w.params.DrawForce
		}
		sh.DrawTo(req.X, req.Y, strength)
	case protocol.ToolSwirl:
		strength := req.Strength
		if strength == 0 {
			strength = w.params.SwirlForce
		}
		sh.SwirlAt(req.X, req.Y, strength)
	case protocol.ToolPin:
		if !sh.TogglePinAt(req.X, req.Y, &w.params) {
			return protocol.ErrInvalidTarget, "pin: no particle in range", 0
		}
	case protocol.ToolFlood:
		quantity := req.Quantity
		if quantity == 0 {
			quantity = w.params.FloodQuantity
		}
		if !sh.FloodAt(req.X, req.Y, quantity, &w.params) {
			return protocol.ErrInvalidTarget, "flood: no particle in range", 0
		}
	case protocol.ToolScrub:
		sh.ScrubThrough(req.X, req.Y, req.X2, req.Y2, &w.params)
	case protocol.ToolBubbles:
		if !sh.InjectBubblesAt(req.X, req.Y, w.env()) {
			return protocol.ErrInvalidTarget, "bubbles: point not underwater", 0
		}
	case protocol.ToolBomb:
		if _, ok := sh.ToggleBombAt(req.X, req.Y, &w.params); !ok {
			return protocol.ErrInvalidTarget, "bomb: no particle in range", 0
		}
	default:
		return protocol.ErrUnknownTool, fmt.Sprintf("unknown tool %q", req.Tool), 0
	}
	return "", "", 0
}

func (w *World) env() physics.Env {
	wind := w.wind.CurrentSpeed()
	return physics.Env{Ocean: w.surface, Floor: w.floor, WindX: wind.X, WindY: wind.Y}
}

// setParam pokes a live tuning field by its yaml name. Only fields that are
// safe to flip mid-run are listed.
func (w *World) setParam(name string, value float64) error {
	p := &w.params
	switch name {
	case "spring_stiffness_adjustment":
		p.SpringStiffnessAdjustment = value
	case "spring_damping_adjustment":
		p.SpringDampingAdjustment = value
	case "strength_adjustment":
		p.StrengthAdjustment = value
	case "ultra_violent_mode":
		p.UltraViolentMode = value != 0
	case "water_density":
		p.WaterDensity = value
	case "buoyancy_adjustment":
		p.BuoyancyAdjustment = value
	case "water_intake_rate":
		p.WaterIntakeRate = value
	case "water_diffusion_speed":
		p.WaterDiffusionSpeed = value
	case "water_drag":
		p.WaterDrag = value
	case "sea_depth":
		p.SeaDepth = value
	case "wave_height":
		p.WaveHeight = value
	case "ocean_floor_bumpiness":
		p.OceanFloorBumpiness = value
	case "ocean_floor_detail_amplification":
		p.OceanFloorDetailAmplification = value
	case "wind_base_speed":
		p.WindBaseSpeed = value
	case "wind_gust_amplitude":
		p.WindGustAmplitude = value
	case "rot_acceler8r":
		p.RotAcceler8r = value
	default:
		return fmt.Errorf("unknown or locked param %q", name)
	}
	return nil
}

func (w *World) audit(nowTick uint64, actor string, req protocol.ToolReq) {
	if w.auditLogger == nil {
		return
	}
	_ = w.auditLogger.WriteAudit(AuditEntry{
		Tick:   nowTick,
		Actor:  actor,
		Tool:   req.Tool,
		ShipID: req.ShipID,
		X:      req.X,
		Y:      req.Y,
	})
}
