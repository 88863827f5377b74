package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

func dbCmd(args []string) {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "runtime data directory")
	worldID := fs.String("world", "", "world id (required unless -db)")
	dbPath := fs.String("db", "", "sqlite db path (optional)")
	limit := fs.Int("limit", 20, "result limit")
	actor := fs.String("actor", "", "actor filter (audits)")
	ship := fs.Int64("ship", 0, "ship_id filter (audits)")
	_ = fs.Parse(args)

	q := "snapshots"
	if fs.NArg() > 0 {
		q = strings.TrimSpace(fs.Arg(0))
	}
	if *limit <= 0 {
		*limit = 20
	}

	path := strings.TrimSpace(*dbPath)
	if path == "" {
		if strings.TrimSpace(*worldID) == "" {
			fmt.Fprintln(os.Stderr, "missing -world or -db")
			os.Exit(2)
		}
		path = filepath.Join(*dataDir, "worlds", *worldID, "index", "world.sqlite")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer db.Close()

	switch q {
	case "snapshots":
		rows, err := db.Query(`SELECT tick,path,seed,ships,points,springs FROM snapshots ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick    int64  `json:"tick"`
				Path    string `json:"path"`
				Seed    int64  `json:"seed"`
				Ships   int    `json:"ships"`
				Points  int    `json:"points"`
				Springs int    `json:"springs"`
			}
			if err := rows.Scan(&r.Tick, &r.Path, &r.Seed, &r.Ships, &r.Points, &r.Springs); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		checkRows(rows)

	case "ticks":
		rows, err := db.Query(`SELECT tick,digest,acts FROM ticks ORDER BY tick DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick   int64  `json:"tick"`
				Digest string `json:"digest"`
				Acts   int    `json:"acts"`
			}
			if err := rows.Scan(&r.Tick, &r.Digest, &r.Acts); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		checkRows(rows)

	case "audits":
		query := `SELECT tick,seq,actor,tool,ship_id,x,y FROM audits`
		var conds []string
		var binds []any
		if strings.TrimSpace(*actor) != "" {
			conds = append(conds, "actor = ?")
			binds = append(binds, *actor)
		}
		if *ship != 0 {
			conds = append(conds, "ship_id = ?")
			binds = append(binds, *ship)
		}
		if len(conds) > 0 {
			query += " WHERE " + strings.Join(conds, " AND ")
		}
		query += " ORDER BY tick DESC, seq DESC LIMIT ?"
		binds = append(binds, *limit)

		rows, err := db.Query(query, binds...)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Tick   int64   `json:"tick"`
				Seq    int     `json:"seq"`
				Actor  string  `json:"actor"`
				Tool   string  `json:"tool"`
				ShipID int64   `json:"ship_id"`
				X      float64 `json:"x"`
				Y      float64 `json:"y"`
			}
			if err := rows.Scan(&r.Tick, &r.Seq, &r.Actor, &r.Tool, &r.ShipID, &r.X, &r.Y); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		checkRows(rows)

	case "acts":
		rows, err := db.Query(`SELECT tick,seq,session_id,act_json FROM acts ORDER BY tick DESC, seq DESC LIMIT ?`, *limit)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var tick int64
			var seq int
			var sessionID, actJSON string
			if err := rows.Scan(&tick, &seq, &sessionID, &actJSON); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			fmt.Printf("{\"tick\":%d,\"seq\":%d,\"session_id\":%q,\"act\":%s}\n", tick, seq, sessionID, actJSON)
		}
		checkRows(rows)

	case "catalogs":
		rows, err := db.Query(`SELECT name,digest,updated_at FROM catalogs ORDER BY name`)
		if err != nil {
			fmt.Fprintln(os.Stderr, "query:", err)
			os.Exit(1)
		}
		defer rows.Close()
		for rows.Next() {
			var r struct {
				Name      string `json:"name"`
				Digest    string `json:"digest"`
				UpdatedAt string `json:"updated_at"`
			}
			if err := rows.Scan(&r.Name, &r.Digest, &r.UpdatedAt); err != nil {
				fmt.Fprintln(os.Stderr, "scan:", err)
				os.Exit(1)
			}
			printJSON(r)
		}
		checkRows(rows)

	default:
		fmt.Fprintf(os.Stderr, "unknown query %q (snapshots, ticks, audits, acts, catalogs)\n", q)
		os.Exit(2)
	}
}

func checkRows(rows *sql.Rows) {
	if err := rows.Err(); err != nil {
		fmt.Fprintln(os.Stderr, "rows:", err)
		os.Exit(1)
	}
}

func printJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "marshal:", err)
		os.Exit(1)
	}
	fmt.Println(string(b))
}
