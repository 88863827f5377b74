package indexdb

import (
	"path/filepath"
	"testing"

	"hullsim.ai/internal/persistence/snapshot"
	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/tuning"
	"hullsim.ai/internal/sim/world"
)

func TestSQLiteIndex_WriteAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	err = s.WriteTick(world.TickLogEntry{
		Tick:   64,
		Digest: "d1",
		Acts:   []world.RecordedAct{{SessionID: "S1"}, {SessionID: "S2"}},
	})
	if err != nil {
		t.Fatalf("write tick: %v", err)
	}
	_ = s.WriteAudit(world.AuditEntry{Tick: 64, Actor: "S1", Tool: "DESTROY", ShipID: 1, X: 1.5, Y: -2})
	_ = s.WriteAudit(world.AuditEntry{Tick: 64, Actor: "S2", Tool: "REPAIR", ShipID: 1})
	s.RecordSnapshot("/tmp/w.snap.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, Tick: 64},
		Seed:   42,
		Ships: []snapshot.ShipV1{{
			PosX:   make([]float64, 9),
			PointA: make([]int32, 20),
		}},
	})

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	// Reopen and query what the writer goroutine committed.
	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	count := func(q string) int {
		var n int
		if err := s.db.QueryRow(q).Scan(&n); err != nil {
			t.Fatalf("%s: %v", q, err)
		}
		return n
	}
	if n := count(`SELECT COUNT(*) FROM ticks`); n != 1 {
		t.Fatalf("ticks = %d", n)
	}
	if n := count(`SELECT COUNT(*) FROM acts WHERE tick = 64`); n != 2 {
		t.Fatalf("acts = %d", n)
	}
	if n := count(`SELECT COUNT(*) FROM audits WHERE actor = 'S1'`); n != 1 {
		t.Fatalf("audits = %d", n)
	}

	var points, springs int
	if err := s.db.QueryRow(`SELECT points, springs FROM snapshots WHERE tick = 64`).Scan(&points, &springs); err != nil {
		t.Fatalf("snapshots row: %v", err)
	}
	if points != 9 || springs != 20 {
		t.Fatalf("snapshot row points=%d springs=%d", points, springs)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	db := &materials.Database{Digest: "abc123"}
	if err := s.UpsertCatalogs("", db, tuning.Defaults()); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	var digest string
	if err := s.db.QueryRow(`SELECT digest FROM catalogs WHERE name = 'tuning'`).Scan(&digest); err != nil {
		t.Fatalf("tuning row: %v", err)
	}
	if digest == "" {
		t.Fatalf("empty tuning digest")
	}
	var version string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version); err != nil {
		t.Fatalf("meta row: %v", err)
	}
	if version != "1" {
		t.Fatalf("schema_version %q", version)
	}
}

func TestSQLiteIndex_DropsWhenFull(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqTick, tick: world.TickLogEntry{Tick: 1}}

	// Channel is full; these must not block.
	if err := s.WriteTick(world.TickLogEntry{Tick: 2}); err != nil {
		t.Fatalf("write tick: %v", err)
	}
	if err := s.WriteAudit(world.AuditEntry{Tick: 2}); err != nil {
		t.Fatalf("write audit: %v", err)
	}
	s.RecordSnapshot("/tmp/x.snap.zst", snapshot.SnapshotV1{})

	if len(s.ch) != 1 {
		t.Fatalf("queue depth %d", len(s.ch))
	}
}
