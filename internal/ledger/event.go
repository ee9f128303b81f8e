package ledger

import "github.com/hughlang/groupledger/internal/codec"

// EventKind names one event emitted on a successful command. Events are
// the sole interface to the external indexer that powers group browsing;
// the core never reads them back.
type EventKind string

const (
	EventGroupCreated          EventKind = "GroupCreated"
	EventGroupRenamed          EventKind = "GroupRenamed"
	EventGroupResized          EventKind = "GroupResized"
	EventGroupRemoved          EventKind = "GroupRemoved"
	EventMemberJoined          EventKind = "MemberJoined"
	EventMemberRequested       EventKind = "MemberRequested"
	EventMemberAccepted        EventKind = "MemberAccepted"
	EventMemberRemoved         EventKind = "MemberRemoved"
	EventMemberLeft            EventKind = "MemberLeft"
	EventMemberRequestRejected EventKind = "MemberRequestRejected"
)

// Event is one ordered log entry produced by a successful command. Only
// the fields relevant to the kind are set; Payload renders exactly those.
type Event struct {
	Kind    EventKind
	Group   GroupID
	Owner   AccountID // GroupCreated only
	Account AccountID // member events only
	Name    string    // GroupCreated, GroupRenamed
	MaxSize uint32    // GroupCreated, GroupResized
}

// Payload encodes the event for the log and the indexer. Field presence
// is fixed per kind so payloads hash identically across replicas.
func (e Event) Payload() codec.Obj {
	obj := codec.Obj{"group": codec.Str(e.Group)}
	switch e.Kind {
	case EventGroupCreated:
		obj["owner"] = codec.Str(e.Owner)
		obj["name"] = codec.Str(e.Name)
		obj["max_size"] = codec.Int(int64(e.MaxSize))
	case EventGroupRenamed:
		obj["name"] = codec.Str(e.Name)
	case EventGroupResized:
		obj["max_size"] = codec.Int(int64(e.MaxSize))
	case EventGroupRemoved:
		// group id only
	default:
		obj["account"] = codec.Str(e.Account)
	}
	return obj
}
