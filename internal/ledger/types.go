package ledger

import "github.com/hughlang/groupledger/internal/codec"

// AccountID is an authenticated caller identity supplied by the host.
// The core never verifies signatures; it trusts the host to have
// authenticated the caller before the command reaches the dispatcher.
type AccountID string

// GroupID is a content-derived group identifier: a domain-separated
// SHA-256 over the creator identity and the creation nonce. Stable for
// the group's lifetime and identical across all replicas.
type GroupID string

// Domain prefixes for content-addressed identity. The version suffix
// enables future algorithm migration without colliding with old ids.
const (
	DomainGroup   = "groupledger/group/v1"
	DomainCommand = "groupledger/command/v1"
	DomainState   = "groupledger/state/v1"
)

// NewGroupID derives the identifier for the nth group created by creator.
func NewGroupID(creator AccountID, nonce uint64) GroupID {
	return GroupID(codec.MustHashObj(DomainGroup, codec.Obj{
		"creator": codec.Str(creator),
		"nonce":   codec.Int(nonce),
	}))
}

// MemberStatus is the per-(group, account) membership state.
// Transitions: None -> Pending -> Member -> None, with a direct
// None -> Member edge when the group does not require approval.
type MemberStatus uint8

const (
	// StatusNone means no relationship exists. Records with this status
	// are not stored; absence from the membership table means None.
	StatusNone MemberStatus = iota
	// StatusPending means a join request awaits owner approval.
	// Pending requests do not consume capacity.
	StatusPending
	// StatusMember means full membership, counted against max_size.
	StatusMember
)

// String returns the lowercase status name.
func (s MemberStatus) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusPending:
		return "pending"
	case StatusMember:
		return "member"
	default:
		return "unknown"
	}
}

// Group is a registry record. Owner is fixed at creation and never
// transferable; Name and MaxSize are mutable only by the owner;
// ApprovalRequired is set at creation and immutable afterward.
type Group struct {
	ID               GroupID
	Owner            AccountID
	Name             string
	MaxSize          uint32
	ApprovalRequired bool
	MemberCount      uint32
}

// Limits are the deployment-time configuration ceilings. They bound
// per-command and per-state storage cost; replicated state is retained
// forever by every party running the host, so every record is paid for
// by the whole network.
type Limits struct {
	// MaxGroupSize is the ceiling for any group's max_size.
	MaxGroupSize uint32
	// MaxNameSize bounds group names, in bytes.
	MaxNameSize uint32
	// MaxGroupsPerOwner caps how many groups one account may own.
	MaxGroupsPerOwner uint32
}

// DefaultLimits match the defaults in the deployment config schema.
var DefaultLimits = Limits{
	MaxGroupSize:      1024,
	MaxNameSize:       64,
	MaxGroupsPerOwner: 16,
}
