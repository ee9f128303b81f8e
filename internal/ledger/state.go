package ledger

import (
	"fmt"
	"sort"

	"github.com/hughlang/groupledger/internal/codec"
)

// memberKey is the composite key of the membership table.
type memberKey struct {
	Group   GroupID
	Account AccountID
}

// State holds the replicated tables the dispatcher mutates. All access
// happens on the host's single command-application thread; there is no
// locking because there is no concurrent write window.
type State struct {
	limits Limits

	groups      map[GroupID]*Group
	members     map[memberKey]MemberStatus // absent key = StatusNone
	ownerCounts map[AccountID]uint32

	nonce      uint64 // creation counter feeding group id derivation
	appliedSeq int64  // seq of the last applied command
}

// NewState creates empty state under the given limits.
func NewState(limits Limits) *State {
	return &State{
		limits:      limits,
		groups:      make(map[GroupID]*Group),
		members:     make(map[memberKey]MemberStatus),
		ownerCounts: make(map[AccountID]uint32),
	}
}

// Limits returns the deployment configuration ceilings.
func (s *State) Limits() Limits { return s.limits }

// AppliedSeq returns the log position of the last applied command.
func (s *State) AppliedSeq() int64 { return s.appliedSeq }

// Nonce returns the creation counter.
func (s *State) Nonce() uint64 { return s.nonce }

// GroupCount returns the number of live groups.
func (s *State) GroupCount() int { return len(s.groups) }

// Group returns a copy of the registry record for id. A removed or
// never-created id reports GROUP_NOT_FOUND; stale views are never served.
func (s *State) Group(id GroupID) (Group, error) {
	g, ok := s.groups[id]
	if !ok {
		return Group{}, reject(CodeGroupNotFound, id, "")
	}
	return *g, nil
}

// Status returns the membership status of account in the group. Fails
// only if the group does not exist.
func (s *State) Status(id GroupID, account AccountID) (MemberStatus, error) {
	if _, ok := s.groups[id]; !ok {
		return StatusNone, reject(CodeGroupNotFound, id, account)
	}
	return s.members[memberKey{Group: id, Account: account}], nil
}

// VerifyMember reports whether account holds Member status in the group.
// Pure read: calling it any number of times yields identical results and
// no state change.
func (s *State) VerifyMember(id GroupID, account AccountID) (bool, error) {
	status, err := s.Status(id, account)
	if err != nil {
		return false, err
	}
	return status == StatusMember, nil
}

// GroupsOwnedBy returns the ids of groups owned by owner, sorted.
func (s *State) GroupsOwnedBy(owner AccountID) []GroupID {
	var ids []GroupID
	for id, g := range s.groups {
		if g.Owner == owner {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Members returns the accounts holding the given status in the group,
// sorted. Fails if the group does not exist.
func (s *State) Members(id GroupID, status MemberStatus) ([]AccountID, error) {
	if _, ok := s.groups[id]; !ok {
		return nil, reject(CodeGroupNotFound, id, "")
	}
	var accounts []AccountID
	for key, st := range s.members {
		if key.Group == id && st == status {
			accounts = append(accounts, key.Account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts, nil
}

// Digest computes the domain-separated hash of the entire state in its
// canonical encoding. Two replicas that applied the same command sequence
// produce the same digest; anything else is divergence.
func (s *State) Digest() string {
	groupIDs := make([]string, 0, len(s.groups))
	for id := range s.groups {
		groupIDs = append(groupIDs, string(id))
	}
	sort.Strings(groupIDs)

	groupArr := make(codec.Arr, 0, len(groupIDs))
	for _, id := range groupIDs {
		g := s.groups[GroupID(id)]
		groupArr = append(groupArr, codec.Obj{
			"id":                codec.Str(g.ID),
			"owner":             codec.Str(g.Owner),
			"name":              codec.Str(g.Name),
			"max_size":          codec.Int(int64(g.MaxSize)),
			"approval_required": codec.Bool(g.ApprovalRequired),
			"member_count":      codec.Int(int64(g.MemberCount)),
		})
	}

	memberKeys := make([]memberKey, 0, len(s.members))
	for key := range s.members {
		memberKeys = append(memberKeys, key)
	}
	sort.Slice(memberKeys, func(i, j int) bool {
		if memberKeys[i].Group != memberKeys[j].Group {
			return memberKeys[i].Group < memberKeys[j].Group
		}
		return memberKeys[i].Account < memberKeys[j].Account
	})

	memberArr := make(codec.Arr, 0, len(memberKeys))
	for _, key := range memberKeys {
		memberArr = append(memberArr, codec.Obj{
			"group":   codec.Str(key.Group),
			"account": codec.Str(key.Account),
			"status":  codec.Str(s.members[key].String()),
		})
	}

	return codec.MustHashObj(DomainState, codec.Obj{
		"groups":      groupArr,
		"members":     memberArr,
		"nonce":       codec.Int(int64(s.nonce)),
		"applied_seq": codec.Int(s.appliedSeq),
	})
}

// CheckInvariants verifies the global invariants that must hold after
// every applied command. Used by property tests and replay verification;
// a violation means the dispatcher has a bug.
func (s *State) CheckInvariants() error {
	counted := make(map[GroupID]uint32)
	ownerGroups := make(map[AccountID]uint32)

	for key, status := range s.members {
		if status == StatusNone {
			return fmt.Errorf("membership table stores explicit none for %v", key)
		}
		if _, ok := s.groups[key.Group]; !ok {
			return fmt.Errorf("membership record %v references missing group", key)
		}
		if status == StatusMember {
			counted[key.Group]++
		}
	}

	for id, g := range s.groups {
		if g.MemberCount > g.MaxSize {
			return fmt.Errorf("group %s: member_count %d exceeds max_size %d", id, g.MemberCount, g.MaxSize)
		}
		if counted[id] != g.MemberCount {
			return fmt.Errorf("group %s: member_count %d but %d member records", id, g.MemberCount, counted[id])
		}
		if uint32(len(g.Name)) > s.limits.MaxNameSize {
			return fmt.Errorf("group %s: name exceeds limit", id)
		}
		if g.MaxSize == 0 || g.MaxSize > s.limits.MaxGroupSize {
			return fmt.Errorf("group %s: max_size %d outside (0, %d]", id, g.MaxSize, s.limits.MaxGroupSize)
		}
		if s.members[memberKey{Group: id, Account: g.Owner}] != StatusMember {
			return fmt.Errorf("group %s: owner %s is not a member", id, g.Owner)
		}
		ownerGroups[g.Owner]++
	}

	for owner, n := range ownerGroups {
		if n > s.limits.MaxGroupsPerOwner {
			return fmt.Errorf("owner %s holds %d groups, quota is %d", owner, n, s.limits.MaxGroupsPerOwner)
		}
		if s.ownerCounts[owner] != n {
			return fmt.Errorf("owner %s: cached count %d, actual %d", owner, s.ownerCounts[owner], n)
		}
	}
	for owner, n := range s.ownerCounts {
		if n == 0 {
			return fmt.Errorf("owner %s: zero count not pruned", owner)
		}
		if ownerGroups[owner] != n {
			return fmt.Errorf("owner %s: cached count %d, actual %d", owner, n, ownerGroups[owner])
		}
	}

	return nil
}
