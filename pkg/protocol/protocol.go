// Package protocol gives the out-of-scope wire transport (§1, §6) a
// concrete Go shape to adapt to, without implementing the transport
// itself. None of this package's types are (de)serialized or transmitted
// anywhere in this module; they exist only so a transport layer built on
// top of this engine has a real target rather than an invented one.
package protocol

import "github.com/hcs-sync/engine/pkg/changeevent"

// Kind tags which branch of the Transmission union a message carries.
type Kind int

const (
	KindGreeting Kind = iota
	KindError
	KindSyncClientToServer
	KindSyncServerToClient
	KindServerVersion
	KindEndConnection
	KindSkipCurrent
	KindChangeEvent
	KindOther
)

// SyncClientToServer is the client's opening bid in a sync handshake.
type SyncClientToServer struct {
	ClientVersion string `json:"client_version"`
	ChangeCount   uint64 `json:"n_changes"`
}

// SyncServerToClient is the server's reply to a sync handshake.
type SyncServerToClient struct {
	ClientVersion string `json:"client_version"`
}

// ServerVersion carries the server's change counter, read from
// <program_data>/server_version on the client side.
type ServerVersion struct {
	Value uint64 `json:"value"`
}

// Transmission is the wire tagged union of §6: `Transmission { Greeting |
// Error | SyncClientToServer{...} | SyncServerToClient{...} |
// ServerVersion{i} | EndConnection | SkipCurrent | ChangeEvent(...) |
// Other(D) }`. Exactly one payload field is populated, matching Kind.
type Transmission struct {
	Kind Kind `json:"kind"`

	Error              string              `json:"error,omitempty"`
	SyncClientToServer *SyncClientToServer `json:"sync_client_to_server,omitempty"`
	SyncServerToClient *SyncServerToClient `json:"sync_server_to_client,omitempty"`
	ServerVersion      *ServerVersion      `json:"server_version,omitempty"`
	ChangeEvent        *ChangeEvent        `json:"change_event,omitempty"`
	Other              []byte              `json:"other,omitempty"`
}

// ChangeEvent reuses pkg/changeevent.ChangeEvent directly rather than
// duplicating the tagged union at the wire layer — the on-the-wire shape
// of a change event is identical to its in-memory shape.
type ChangeEvent struct {
	ID    uint64                  `json:"id"`
	Event changeevent.ChangeEvent `json:"event"`
}
