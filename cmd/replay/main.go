package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"hullsim.ai/internal/persistence/snapshot"
	"hullsim.ai/internal/sim/materials"
	"hullsim.ai/internal/sim/world"
)

func main() {
	var (
		snapPath  = flag.String("snapshot", "", "path to .snap.zst")
		ticksDir  = flag.String("ticks", "", "ticks dir containing ticks-*.jsonl.zst (optional)")
		configDir = flag.String("configs", "./configs", "config directory")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	points, springs := 0, 0
	for i := range snap.Ships {
		points += len(snap.Ships[i].PosX)
		springs += len(snap.Ships[i].PointA)
	}
	fmt.Printf("snapshot v%d world=%s tick=%d seed=%d ships=%d points=%d springs=%d\n",
		snap.Header.Version, snap.Header.WorldID, snap.Header.Tick, snap.Seed,
		len(snap.Ships), points, springs)

	if *ticksDir == "" {
		return
	}

	db, err := materials.Load(filepath.Join(*configDir, "materials.json"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load materials:", err)
		os.Exit(1)
	}

	w := world.New(world.WorldConfig{
		ID:      snap.Header.WorldID,
		Seed:    snap.Seed,
		ShipDir: filepath.Join(*configDir, "ships"),
	}, snap.Params, db)
	if err := w.ImportSnapshot(snap); err != nil {
		fmt.Fprintln(os.Stderr, "import snapshot:", err)
		os.Exit(1)
	}

	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}

	var checked uint64
	for _, path := range files {
		if err := replayFile(w, path, *toTick, &checked); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if *toTick != 0 && w.CurrentTick() > *toTick {
			break
		}
	}
	fmt.Printf("replay ok: verified=%d digests (from snapshot tick=%d to tick=%d)\n",
		checked, snap.Header.Tick, w.CurrentTick())
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

// replayFile re-steps the world through one tick log file. Only eventful
// ticks are logged, so the world is stepped forward with empty inputs to
// reach each entry before its acts apply.
func replayFile(w *world.World, path string, toTick uint64, checked *uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		line := sc.Bytes()
		var entry world.TickLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if entry.Tick < w.CurrentTick() {
			continue
		}
		if toTick != 0 && entry.Tick > toTick {
			return nil
		}

		for w.CurrentTick() < entry.Tick {
			w.StepOnce(nil, nil, nil)
		}

		acts := make([]world.ActEnvelope, 0, len(entry.Acts))
		for _, ra := range entry.Acts {
			acts = append(acts, world.ActEnvelope{SessionID: ra.SessionID, Act: ra.Act})
		}

		tick, gotDigest := w.StepOnce(nil, nil, acts)
		if tick != entry.Tick {
			return fmt.Errorf("tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
		}

		if entry.Digest != "" {
			*checked++
			if gotDigest != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
			}
		}
	}
	return sc.Err()
}
