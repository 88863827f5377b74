package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Act layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrUnknownShip   = "E_UNKNOWN_SHIP"
	ErrUnknownTool   = "E_UNKNOWN_TOOL"
	ErrUnknownParam  = "E_UNKNOWN_PARAM"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrShipLoad      = "E_SHIP_LOAD_FAILED"
	ErrCapacity      = "E_CAPACITY"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrUnknownShip:     {},
	ErrUnknownTool:     {},
	ErrUnknownParam:    {},
	ErrInvalidTarget:   {},
	ErrShipLoad:        {},
	ErrCapacity:        {},
	ErrRateLimit:       {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
