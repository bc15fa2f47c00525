package interaction

import (
	"context"
	"errors"
	"testing"

	"github.com/lucamoroz/mesh-go/internal/meshtest"
	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	"github.com/lucamoroz/mesh-go/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolverRespond(t *testing.T) {
	ctx := context.Background()
	requester := Requester{NetIdx: 0, AppIdx: 2, Addr: 0x0007}
	pub := model.Publication{Address: 0xC000, TTL: 4}
	status := wire.EncodeOnOffStatus(wire.OnOffStatus{On: true})

	tests := []struct {
		name      string
		decision  Decision
		wantSends int
		wantPubs  int
	}{
		{"GetRepliesOnly", Decision{Ack: true, Requester: requester, Publication: pub}, 1, 0},
		{"AckSetChangedRepliesAndPublishes", Decision{Ack: true, Requester: requester, Changed: true, Publication: pub}, 1, 1},
		{"UnackSetChangedPublishes", Decision{Changed: true, Publication: pub}, 0, 1},
		{"UnackSetChangedUnconfigured", Decision{Changed: true}, 0, 0},
		{"AckSetChangedUnconfigured", Decision{Ack: true, Requester: requester, Changed: true}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &meshtest.Recorder{}
			r := NewResolver(ResolverConfig{Transport: rec})

			require.NoError(t, r.Respond(ctx, 0x0001, tt.decision, wire.OpOnOffStatus, status))

			var sends, pubs int
			for _, f := range rec.Frames() {
				assert.Equal(t, wire.OpOnOffStatus, f.Opcode)
				assert.Equal(t, status, f.Payload)
				if f.Published {
					pubs++
					assert.Equal(t, model.Address(0xC000), f.Dst)
				} else {
					sends++
					assert.Equal(t, model.Address(0x0007), f.Dst)
					assert.Equal(t, model.DefaultTTL, f.TTL)
					assert.Equal(t, uint16(2), f.AppIdx)
				}
			}
			assert.Equal(t, tt.wantSends, sends, "sends")
			assert.Equal(t, tt.wantPubs, pubs, "publishes")
		})
	}
}

func TestResolverPublishUnconfigured(t *testing.T) {
	tr := meshtest.NewMockTransport(t)
	r := NewResolver(ResolverConfig{Transport: tr})

	err := r.Publish(context.Background(), 0x0001, model.Publication{}, wire.OpOnOffStatus, []byte{1})
	assert.ErrorIs(t, err, mesh.ErrUnassignedAddress)
	tr.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestResolverSendFailureReported(t *testing.T) {
	tr := meshtest.NewMockTransport(t)
	fail := errors.New("no route")
	tr.EXPECT().Send(mock.Anything, mock.MatchedBy(func(sc mesh.SendContext) bool {
		return sc.Dst == 0x0009 && sc.TTL == 5
	}), []byte{0x82, 0x04, 0x00}).Return(fail).Once()

	r := NewResolver(ResolverConfig{Transport: tr, DefaultTTL: 5})
	err := r.Reply(context.Background(), 0x0001, Requester{Addr: 0x0009}, wire.OpOnOffStatus, []byte{0})
	assert.ErrorIs(t, err, fail)
}
