// Package protocol defines the wire format shared by the server and the game
// client: inbound player inputs, outbound state snapshots, rejection codes
// and the frame codecs.
package protocol

const Version = "1.0"

// ServerMessage types.
const (
	TypeWelcome   = "WELCOME"
	TypeGameState = "GAME_STATE"
)
