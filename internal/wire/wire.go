// Package wire implements the client<->server transport framing: every
// message is a length-prefixed frame carrying one JSON-encoded envelope,
// tagged with a dialogue id so a peer can match replies to requests.
package wire

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"tournament-core/internal/ids"
	"tournament-core/internal/oplog"
	"tournament-core/internal/syncproto"
)

// maxFrameSize guards against a corrupt or hostile length prefix forcing
// an unbounded allocation.
const maxFrameSize = 16 * 1024 * 1024

// ServerBoundKind enumerates the message kinds a client may send.
type ServerBoundKind string

const (
	ServerBoundFetch      ServerBoundKind = "fetch"
	ServerBoundSyncChain  ServerBoundKind = "sync_chain"
	ServerBoundForwardAck ServerBoundKind = "forward_resp"
)

// ServerBound is one frame sent from client to server.
type ServerBound struct {
	Dialogue ids.DialogueID  `json:"dialogue"`
	Kind     ServerBoundKind `json:"kind"`

	// Present when Kind == ServerBoundSyncChain.
	ClientLink *syncproto.ClientLink `json:"client_link,omitempty"`

	// Present when Kind == ServerBoundForwardAck.
	ForwardResult *ForwardResult `json:"forward_result,omitempty"`
}

// ForwardResult is a subscriber's acknowledgement of a forwarded sub-log.
type ForwardResult struct {
	Applied bool `json:"applied"`
}

// ClientBoundKind enumerates the message kinds a server may send.
type ClientBoundKind string

const (
	ClientBoundFetchResp   ClientBoundKind = "fetch_resp"
	ClientBoundSyncChain   ClientBoundKind = "sync_chain"
	ClientBoundSyncForward ClientBoundKind = "sync_forward"
)

// ClientBound is one frame sent from server to client.
type ClientBound struct {
	Dialogue ids.DialogueID  `json:"dialogue"`
	Kind     ClientBoundKind `json:"kind"`

	// Present when Kind == ClientBoundFetchResp.
	Snapshot json.RawMessage `json:"snapshot,omitempty"`

	// Present when Kind == ClientBoundSyncChain.
	ServerLink *syncproto.ServerLink `json:"server_link,omitempty"`

	// Present when Kind == ClientBoundSyncForward.
	ForwardTournament ids.TournamentID `json:"forward_tournament,omitempty"`
	ForwardSubLog     oplog.OpSlice    `json:"forward_sub_log,omitempty"`
}

// WriteFrame encodes v as JSON and writes it as one length-prefixed frame.
func WriteFrame(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("wire: marshal: %w", err)
	}
	if len(payload) > maxFrameSize {
		return fmt.Errorf("wire: frame too large: %d bytes", len(payload))
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("wire: write payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame and decodes it into v.
func ReadFrame(r io.Reader, v any) error {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return fmt.Errorf("wire: read header: %w", err)
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > maxFrameSize {
		return fmt.Errorf("wire: frame too large: %d bytes", n)
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("wire: read payload: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("wire: unmarshal: %w", err)
	}
	return nil
}

// WriteServerBound writes one client-to-server frame.
func WriteServerBound(w io.Writer, msg ServerBound) error { return WriteFrame(w, msg) }

// ReadServerBound reads one client-to-server frame.
func ReadServerBound(r io.Reader) (ServerBound, error) {
	var msg ServerBound
	err := ReadFrame(r, &msg)
	return msg, err
}

// WriteClientBound writes one server-to-client frame.
func WriteClientBound(w io.Writer, msg ClientBound) error { return WriteFrame(w, msg) }

// ReadClientBound reads one server-to-client frame.
func ReadClientBound(r io.Reader) (ClientBound, error) {
	var msg ClientBound
	err := ReadFrame(r, &msg)
	return msg, err
}
