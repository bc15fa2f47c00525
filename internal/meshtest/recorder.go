package meshtest

import (
	"context"
	"sync"

	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
)

// Frame is one message handed to the Recorder.
type Frame struct {
	// Published is false for Send, true for Publish.
	Published bool

	Src model.Address
	Dst model.Address
	TTL uint8

	// Send only.
	NetIdx, AppIdx uint16

	// Publish only.
	Publication model.Publication

	Opcode  wire.Opcode
	Payload []byte
}

// Recorder is a mesh.Transport that records every call.
// Err, when set, is returned by every call after recording it.
type Recorder struct {
	mu     sync.Mutex
	frames []Frame
	Err    error
}

var _ mesh.Transport = (*Recorder)(nil)

// Send records a unicast message.
func (r *Recorder) Send(_ context.Context, sc mesh.SendContext, access []byte) error {
	op, params, _ := wire.SplitOpcode(access)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, Frame{
		Src:     sc.Src,
		Dst:     sc.Dst,
		TTL:     sc.TTL,
		NetIdx:  sc.NetIdx,
		AppIdx:  sc.AppIdx,
		Opcode:  op,
		Payload: append([]byte(nil), params...),
	})
	return r.Err
}

// Publish records a published message. Unconfigured publications return
// mesh.ErrUnassignedAddress and are not recorded.
func (r *Recorder) Publish(_ context.Context, src model.Address, pub model.Publication, access []byte) error {
	if !pub.Configured() {
		return mesh.ErrUnassignedAddress
	}
	op, params, _ := wire.SplitOpcode(access)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, Frame{
		Published:   true,
		Src:         src,
		Dst:         pub.Address,
		TTL:         pub.TTL,
		AppIdx:      pub.AppKeyIndex,
		Publication: pub,
		Opcode:      op,
		Payload:     append([]byte(nil), params...),
	})
	return r.Err
}

// Frames returns a copy of everything recorded.
func (r *Recorder) Frames() []Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Frame(nil), r.frames...)
}

// Last returns the most recent frame.
func (r *Recorder) Last() (Frame, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.frames) == 0 {
		return Frame{}, false
	}
	return r.frames[len(r.frames)-1], true
}

// Count returns the number of recorded frames.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

// Reset discards recorded frames.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = nil
}
