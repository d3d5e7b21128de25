package server

import "github.com/tilewright/wavegrid/internal/wfc"

// GenerateRequest is the first message a client sends on the generate
// socket: grid dimensions, an optional seed (0 means time-based) and the
// tileset to solve with.
type GenerateRequest struct {
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	Seed            int64           `json:"seed,omitempty"`
	Tiles           []wfc.TileDef   `json:"tiles"`
	Anchors         []wfc.AnchorDef `json:"anchors,omitempty"`
	SeedRandomStart *bool           `json:"seed_random_start,omitempty"`
}

// Frame is streamed once per resolved cell.
type Frame struct {
	Index     int    `json:"index"`
	Tile      string `json:"tile"`
	Remaining int    `json:"remaining"`
}

// Result closes a generation stream: either done or an error description.
type Result struct {
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}
