package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hughlang/groupledger/internal/codec"
)

func TestEvent_PayloadShapePerKind(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  codec.Obj
	}{
		{
			"created",
			Event{Kind: EventGroupCreated, Group: "g1", Owner: "alice", Name: "chess", MaxSize: 4},
			codec.Obj{
				"group":    codec.Str("g1"),
				"owner":    codec.Str("alice"),
				"name":     codec.Str("chess"),
				"max_size": codec.Int(4),
			},
		},
		{
			"renamed",
			Event{Kind: EventGroupRenamed, Group: "g1", Name: "go"},
			codec.Obj{"group": codec.Str("g1"), "name": codec.Str("go")},
		},
		{
			"resized",
			Event{Kind: EventGroupResized, Group: "g1", MaxSize: 8},
			codec.Obj{"group": codec.Str("g1"), "max_size": codec.Int(8)},
		},
		{
			"removed",
			Event{Kind: EventGroupRemoved, Group: "g1"},
			codec.Obj{"group": codec.Str("g1")},
		},
		{
			"joined",
			Event{Kind: EventMemberJoined, Group: "g1", Account: "bob"},
			codec.Obj{"group": codec.Str("g1"), "account": codec.Str("bob")},
		},
		{
			"rejected",
			Event{Kind: EventMemberRequestRejected, Group: "g1", Account: "bob"},
			codec.Obj{"group": codec.Str("g1"), "account": codec.Str("bob")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Payload())
		})
	}
}
