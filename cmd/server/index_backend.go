package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"hullsim.ai/internal/persistence/indexdb"
	"hullsim.ai/internal/persistence/snapshot"
	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/tuning"
	"hullsim.ai/internal/sim/world"
)

type runtimeIndex interface {
	world.TickLogger
	world.AuditLogger
	Close() error
	UpsertCatalogs(configDir string, db *materials.Database, params tuning.Params) error
	RecordSnapshot(path string, snap snapshot.SnapshotV1)
}

func openRuntimeIndex(worldDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("HS_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(worldDir, "index", "world.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported HS_INDEX_BACKEND: %s", backend)
	}
}
