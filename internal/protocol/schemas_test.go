package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hullsim.ai/internal/protocol"
)

func TestSchemas_ValidateSamples(t *testing.T) {
	compile := func(name string) *jsonschema.Schema {
		t.Helper()
		p := filepath.Join("..", "..", "schemas", name)
		s, err := jsonschema.Compile(p)
		if err != nil {
			t.Fatalf("compile %s: %v", name, err)
		}
		return s
	}

	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(v); err != nil {
			t.Fatalf("validate: %v", err)
		}
	}

	helloSchema := compile("hello.schema.json")
	welcomeSchema := compile("welcome.schema.json")
	actSchema := compile("act.schema.json")
	frameSchema := compile("frame.schema.json")

	var hello any
	_ = json.Unmarshal([]byte(`{
	  "type":"HELLO",
	  "protocol_version":"1.0",
	  "client_name":"viewer1",
	  "capabilities":{"want_frames":true,"max_frame_rate":30}
	}`), &hello)
	validate(helloSchema, hello)

	var welcome any
	_ = json.Unmarshal([]byte(`{
	  "type":"WELCOME",
	  "protocol_version":"1.0",
	  "session_id":"S1",
	  "world_params":{
	    "tick_rate_hz":64,
	    "frame_every_ticks":1,
	    "sea_depth":150,
	    "wave_height":1.25,
	    "seed":1337
	  },
	  "catalogs":{"materials":{"digest":"deadbeef","count":10}},
	  "ships":[{"ship_id":1,"name":"coastal barge","points":144,"springs":480,"triangles":200}]
	}`), &welcome)
	validate(welcomeSchema, welcome)

	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT",
	  "protocol_version":"1.0",
	  "act_id":"ACT_1",
	  "tools":[
	    {"tool":"DESTROY","ship_id":1,"x":3.5,"y":-1.25},
	    {"tool":"SAW","ship_id":1,"x":0,"y":0,"x2":4,"y2":0},
	    {"tool":"SPAWN_SHIP","definition":"log_raft"},
	    {"tool":"SET_PARAM","param":"wave_height","value":2.5}
	  ]
	}`), &act)
	validate(actSchema, act)

	// A marshaled FrameMsg must satisfy its own schema.
	frame := protocol.FrameMsg{
		Type:            protocol.TypeFrame,
		ProtocolVersion: protocol.Version,
		Tick:            42,
		ShipID:          1,
		PointCount:      2,
		Positions:       "AAAAAAAAAAAAAIA/AACAPw==",
		LightWater:      "AAAAAAAAAAAAAIA/AACAPw==",
		Temperatures:    "AAAAAAAAAAA=",
		TopologyChanged: false,
	}
	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	var frameDoc any
	_ = json.Unmarshal(raw, &frameDoc)
	validate(frameSchema, frameDoc)
}

func TestSchemas_RejectUnknownTool(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "..", "schemas", "act.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	var act any
	_ = json.Unmarshal([]byte(`{
	  "type":"ACT","protocol_version":"1.0","act_id":"A",
	  "tools":[{"tool":"TRACTOR_BEAM"}]
	}`), &act)
	if err := s.Validate(act); err == nil {
		t.Fatalf("unknown tool should fail validation")
	}
}
