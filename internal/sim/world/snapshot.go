package world

import (
	"fmt"

	"hullsim.ai/internal/persistence/snapshot"
	"hullsim.ai/internal/sim/physics"
)

const snapshotVersion = 1

func (w *World) ExportSnapshot(nowTick uint64) snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version: snapshotVersion,
			WorldID: w.cfg.ID,
			Tick:    nowTick,
		},
		Seed:            w.cfg.Seed,
		MaterialsDigest: w.db.Digest,
		Params:          w.params,
		FloorAdjusted:   w.floor.AdjustedSamples(),
		NextShipID:      w.nextShipID,
	}
	for _, sh := range w.ships {
		snap.Ships = append(snap.Ships, exportShip(sh))
	}
	return snap
}

func exportShip(sh *physics.Ship) snapshot.ShipV1 {
	p := sh.Points
	s := sh.Springs
	t := sh.Triangles

	v := snapshot.ShipV1{
		ID:   sh.ID,
		Name: sh.Name,

		Material:    append([]int32(nil), p.Material...),
		PosX:        append([]float64(nil), p.PosX...),
		PosY:        append([]float64(nil), p.PosY...),
		VelX:        append([]float64(nil), p.VelX...),
		VelY:        append([]float64(nil), p.VelY...),
		Water:       append([]float64(nil), p.Water...),
		Leaking:     append([]bool(nil), p.Leaking...),
		Temperature: append([]float64(nil), p.Temperature...),
		Decay:       append([]float64(nil), p.Decay...),
		Pinned:      append([]bool(nil), p.Pinned...),

		SpringCap:      s.Cap,
		PointA:         append([]int32(nil), s.PointA[:s.Count]...),
		PointB:         append([]int32(nil), s.PointB[:s.Count]...),
		RestLength:     append([]float64(nil), s.RestLength[:s.Count]...),
		StiffFactor:    append([]float64(nil), s.StiffFactor[:s.Count]...),
		DampFactor:     append([]float64(nil), s.DampFactor[:s.Count]...),
		BreakStrain:    append([]float64(nil), s.BreakStrain[:s.Count]...),
		WaterDiffusion: append([]float64(nil), s.WaterDiffusion[:s.Count]...),
		IsRope:         append([]bool(nil), s.IsRope[:s.Count]...),
		Broken:         append([]bool(nil), s.Broken[:s.Count]...),
		Restored:       append([]bool(nil), s.Restored[:s.Count]...),

		TriA: append([]int32(nil), t.A[:t.Count]...),
		TriB: append([]int32(nil), t.B[:t.Count]...),
		TriC: append([]int32(nil), t.C[:t.Count]...),
	}
	for _, b := range sh.Bombs {
		v.BombPoints = append(v.BombPoints, b.Point)
		v.BombFuses = append(v.BombFuses, b.FuseTicks)
	}
	return v
}

// ImportSnapshot replaces all world state from a snapshot. The materials
// catalog must match the one the snapshot was taken against.
func (w *World) ImportSnapshot(snap snapshot.SnapshotV1) error {
	if snap.Header.Version != snapshotVersion {
		return fmt.Errorf("snapshot version %d not supported", snap.Header.Version)
	}
	if snap.MaterialsDigest != w.db.Digest {
		return fmt.Errorf("snapshot materials digest %.8s does not match catalog %.8s",
			snap.MaterialsDigest, w.db.Digest)
	}

	ships := make([]*physics.Ship, 0, len(snap.Ships))
	for i := range snap.Ships {
		sh, err := w.importShip(&snap.Ships[i])
		if err != nil {
			return fmt.Errorf("ship %q: %w", snap.Ships[i].Name, err)
		}
		ships = append(ships, sh)
	}

	w.params = snap.Params
	w.cfg.Seed = snap.Seed
	w.floor.SetAdjustedSamples(snap.FloorAdjusted)
	w.floor.Update(&w.params)
	w.ships = ships
	w.nextShipID = snap.NextShipID
	w.tick.Store(snap.Header.Tick)

	// Restored ships restart their topology version counters, so cached
	// frames and per-client sent versions are no longer comparable.
	w.frames = make(map[int32]*physics.Frame)
	for _, cl := range w.clients {
		for id := range cl.TopoSent {
			delete(cl.TopoSent, id)
		}
	}
	return nil
}

func (w *World) importShip(v *snapshot.ShipV1) (*physics.Ship, error) {
	n := len(v.PosX)
	if n == 0 || len(v.Material) != n {
		return nil, fmt.Errorf("inconsistent point arrays")
	}
	p := physics.NewPoints(n)
	copy(p.PosX, v.PosX)
	copy(p.PosY, v.PosY)
	copy(p.VelX, v.VelX)
	copy(p.VelY, v.VelY)
	copy(p.Material, v.Material)
	copy(p.Water, v.Water)
	copy(p.Leaking, v.Leaking)
	copy(p.Temperature, v.Temperature)
	copy(p.Decay, v.Decay)
	copy(p.Pinned, v.Pinned)

	// Material factors re-denormalize from the catalog.
	for i := 0; i < n; i++ {
		if int(v.Material[i]) >= len(w.db.Defs) {
			return nil, fmt.Errorf("material index %d out of range", v.Material[i])
		}
		def := w.db.Get(v.Material[i])
		p.BaseMass[i] = def.Mass()
		p.BuoyancyFill[i] = def.BuoyancyVolumeFill
		p.WaterIntakeFactor[i] = def.WaterIntake
		p.WaterDiffusion[i] = def.WaterDiffusionSpeed
		p.WaterRetention[i] = def.WaterRetention
		p.RustReceptivity[i] = def.RustReceptivity
		p.WindReceptivity[i] = def.WindReceptivity
		p.ThermalRate[i] = def.ThermalConductivity
		p.Hull[i] = def.IsHull
		p.Conductive[i] = def.ConductsElectricity
		p.WaterCapacity[i] = 4.0 * def.BuoyancyVolumeFill
		p.Color[i] = def.RenderRGBA()
	}

	count := len(v.PointA)
	if v.SpringCap < count {
		return nil, fmt.Errorf("spring capacity %d below count %d", v.SpringCap, count)
	}
	s := physics.NewSprings(v.SpringCap)
	for i := 0; i < count; i++ {
		if v.PointA[i] < 0 || int(v.PointA[i]) >= n || v.PointB[i] < 0 || int(v.PointB[i]) >= n {
			return nil, fmt.Errorf("spring %d endpoints (%d,%d) out of range for %d points",
				i, v.PointA[i], v.PointB[i], n)
		}
		si := s.Add(v.PointA[i], v.PointB[i], v.RestLength[i], v.StiffFactor[i],
			v.DampFactor[i], v.BreakStrain[i], v.WaterDiffusion[i], v.IsRope[i])
		s.Broken[si] = v.Broken[i]
		s.Restored[si] = v.Restored[i]
		p.Springs[v.PointA[i]] = append(p.Springs[v.PointA[i]], si)
		p.Springs[v.PointB[i]] = append(p.Springs[v.PointB[i]], si)
	}
	s.RebuildActive()

	for pi := int32(0); int(pi) < n; pi++ {
		alive := false
		for _, si := range p.Springs[pi] {
			if !s.Broken[si] {
				alive = true
				break
			}
		}
		p.Orphaned[pi] = !alive
	}

	t := physics.NewTriangles(len(v.TriA))
	for i := range v.TriA {
		if v.TriA[i] < 0 || int(v.TriA[i]) >= n ||
			v.TriB[i] < 0 || int(v.TriB[i]) >= n ||
			v.TriC[i] < 0 || int(v.TriC[i]) >= n {
			return nil, fmt.Errorf("triangle %d corners (%d,%d,%d) out of range for %d points",
				i, v.TriA[i], v.TriB[i], v.TriC[i], n)
		}
		t.Add(v.TriA[i], v.TriB[i], v.TriC[i])
	}

	sh := physics.RestoreShip(v.ID, v.Name, p, s, t, w.db)
	for i := range v.BombPoints {
		if v.BombPoints[i] < 0 || int(v.BombPoints[i]) >= n {
			return nil, fmt.Errorf("bomb %d attachment point %d out of range for %d points",
				i, v.BombPoints[i], n)
		}
		sh.Bombs = append(sh.Bombs, physics.Bomb{Point: v.BombPoints[i], FuseTicks: v.BombFuses[i]})
	}
	return sh, nil
}
