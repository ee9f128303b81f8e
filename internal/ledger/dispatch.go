package ledger

// Dispatcher applies authenticated commands against the state, one at a
// time. Every handler follows the same discipline: load the records the
// command touches, check every precondition, and only then mutate. No
// write happens before the last check passes, which is what makes each
// command atomic without transactions or locks.
//
// The host is responsible for ordering: by the time a command reaches
// Apply, its position in the replicated log is already decided.
type Dispatcher struct {
	state *State
}

// NewDispatcher creates a dispatcher over fresh state.
func NewDispatcher(limits Limits) *Dispatcher {
	return &Dispatcher{state: NewState(limits)}
}

// State exposes the read side of the dispatcher's state.
func (d *Dispatcher) State() *State { return d.state }

// Outcome is the result of a successfully applied command.
type Outcome struct {
	// Seq is the log position the command was applied at.
	Seq int64
	// Group is the id the command acted on. For create_group this is the
	// freshly derived id; callers learn it from here.
	Group GroupID
	// Events are the ordered log entries the command produced.
	Events []Event
}

// Apply validates and applies one command from caller. On success the
// state has mutated and the outcome carries the emitted events; on
// rejection the state is untouched and the error is a *Error with
// exactly one code.
func (d *Dispatcher) Apply(caller AccountID, cmd Command) (Outcome, error) {
	seq := d.state.appliedSeq + 1

	var (
		group  GroupID
		events []Event
		err    error
	)

	switch cmd.Kind {
	case CmdCreateGroup:
		group, events, err = d.createGroup(caller, cmd)
	case CmdUpdateGroup:
		group = cmd.Group
		events, err = d.updateGroup(caller, cmd)
	case CmdRemoveGroup:
		group = cmd.Group
		events, err = d.removeGroup(caller, cmd.Group)
	case CmdJoinGroup:
		group = cmd.Group
		events, err = d.join(caller, cmd.Group)
	case CmdRequestJoin:
		group = cmd.Group
		events, err = d.requestJoin(caller, cmd.Group)
	case CmdLeaveGroup:
		group = cmd.Group
		events, err = d.leave(caller, cmd.Group)
	case CmdAcceptMember:
		group = cmd.Group
		events, err = d.acceptMember(caller, cmd.Group, cmd.Account)
	case CmdRemoveMember:
		group = cmd.Group
		events, err = d.removeMember(caller, cmd.Group, cmd.Account)
	case CmdAddMember:
		group = cmd.Group
		events, err = d.addMember(caller, cmd.Group, cmd.Account)
	default:
		return Outcome{}, reject(CodeUnknownCommand, cmd.Group, caller)
	}

	if err != nil {
		return Outcome{}, err
	}

	d.state.appliedSeq = seq
	return Outcome{Seq: seq, Group: group, Events: events}, nil
}

// createGroup allocates a fresh group owned by caller. The owner is
// granted Member status immediately and counts against capacity.
func (d *Dispatcher) createGroup(caller AccountID, cmd Command) (GroupID, []Event, error) {
	s := d.state

	if uint32(len(cmd.Name)) > s.limits.MaxNameSize {
		return "", nil, reject(CodeNameTooLong, "", caller)
	}
	if cmd.MaxSize == 0 || cmd.MaxSize > s.limits.MaxGroupSize {
		return "", nil, reject(CodeInvalidSize, "", caller)
	}
	if s.ownerCounts[caller] >= s.limits.MaxGroupsPerOwner {
		return "", nil, reject(CodeOwnerQuotaExceeded, "", caller)
	}

	id := NewGroupID(caller, s.nonce)

	s.groups[id] = &Group{
		ID:               id,
		Owner:            caller,
		Name:             cmd.Name,
		MaxSize:          cmd.MaxSize,
		ApprovalRequired: cmd.ApprovalRequired,
		MemberCount:      1,
	}
	s.members[memberKey{Group: id, Account: caller}] = StatusMember
	s.ownerCounts[caller]++
	s.nonce++

	return id, []Event{{
		Kind:    EventGroupCreated,
		Group:   id,
		Owner:   caller,
		Name:    cmd.Name,
		MaxSize: cmd.MaxSize,
	}}, nil
}

// updateGroup renames and/or resizes a group. Both attribute updates are
// validated before either applies, so a combined update is atomic too.
func (d *Dispatcher) updateGroup(caller AccountID, cmd Command) ([]Event, error) {
	s := d.state

	g, ok := s.groups[cmd.Group]
	if !ok {
		return nil, reject(CodeGroupNotFound, cmd.Group, caller)
	}
	if g.Owner != caller {
		return nil, reject(CodeNotOwner, cmd.Group, caller)
	}
	if cmd.SetName && uint32(len(cmd.Name)) > s.limits.MaxNameSize {
		return nil, reject(CodeNameTooLong, cmd.Group, caller)
	}
	if cmd.SetMaxSize {
		if cmd.MaxSize == 0 || cmd.MaxSize > s.limits.MaxGroupSize {
			return nil, reject(CodeInvalidSize, cmd.Group, caller)
		}
		if cmd.MaxSize < g.MemberCount {
			return nil, reject(CodeCapacityBelowMembers, cmd.Group, caller)
		}
	}

	var events []Event
	if cmd.SetName {
		g.Name = cmd.Name
		events = append(events, Event{Kind: EventGroupRenamed, Group: g.ID, Name: g.Name})
	}
	if cmd.SetMaxSize {
		g.MaxSize = cmd.MaxSize
		events = append(events, Event{Kind: EventGroupResized, Group: g.ID, MaxSize: g.MaxSize})
	}
	return events, nil
}

// removeGroup deletes the group record and every membership record under
// it in one step. The id becomes permanently invalid: all later lookups
// report GROUP_NOT_FOUND.
func (d *Dispatcher) removeGroup(caller AccountID, id GroupID) ([]Event, error) {
	s := d.state

	g, ok := s.groups[id]
	if !ok {
		return nil, reject(CodeGroupNotFound, id, caller)
	}
	if g.Owner != caller {
		return nil, reject(CodeNotOwner, id, caller)
	}

	for key := range s.members {
		if key.Group == id {
			delete(s.members, key)
		}
	}
	delete(s.groups, id)
	s.ownerCounts[caller]--
	if s.ownerCounts[caller] == 0 {
		delete(s.ownerCounts, caller)
	}

	return []Event{{Kind: EventGroupRemoved, Group: id}}, nil
}

// join admits caller directly when the group does not require approval,
// or files a pending request when it does. Pending requests do not
// consume capacity, so a full approval-required group still accepts them.
func (d *Dispatcher) join(caller AccountID, id GroupID) ([]Event, error) {
	s := d.state

	g, ok := s.groups[id]
	if !ok {
		return nil, reject(CodeGroupNotFound, id, caller)
	}

	key := memberKey{Group: id, Account: caller}
	switch s.members[key] {
	case StatusMember:
		return nil, reject(CodeAlreadyMember, id, caller)
	case StatusPending:
		return nil, reject(CodeAlreadyPending, id, caller)
	}

	if g.ApprovalRequired {
		s.members[key] = StatusPending
		return []Event{{Kind: EventMemberRequested, Group: id, Account: caller}}, nil
	}

	if g.MemberCount == g.MaxSize {
		return nil, reject(CodeGroupFull, id, caller)
	}
	s.members[key] = StatusMember
	g.MemberCount++
	return []Event{{Kind: EventMemberJoined, Group: id, Account: caller}}, nil
}

// requestJoin files a pending request on an approval-required group.
func (d *Dispatcher) requestJoin(caller AccountID, id GroupID) ([]Event, error) {
	s := d.state

	g, ok := s.groups[id]
	if !ok {
		return nil, reject(CodeGroupNotFound, id, caller)
	}
	if !g.ApprovalRequired {
		return nil, reject(CodeApprovalNotRequired, id, caller)
	}

	key := memberKey{Group: id, Account: caller}
	switch s.members[key] {
	case StatusMember:
		return nil, reject(CodeAlreadyMember, id, caller)
	case StatusPending:
		return nil, reject(CodeAlreadyPending, id, caller)
	}

	s.members[key] = StatusPending
	return []Event{{Kind: EventMemberRequested, Group: id, Account: caller}}, nil
}

// leave removes caller's own membership. The owner cannot leave; owner
// removal happens only through remove_group, which keeps ownership
// independent of membership churn.
func (d *Dispatcher) leave(caller AccountID, id GroupID) ([]Event, error) {
	s := d.state

	g, ok := s.groups[id]
	if !ok {
		return nil, reject(CodeGroupNotFound, id, caller)
	}
	if g.Owner == caller {
		return nil, reject(CodeOwnerCannotLeave, id, caller)
	}

	key := memberKey{Group: id, Account: caller}
	if s.members[key] != StatusMember {
		return nil, reject(CodeNotAMember, id, caller)
	}

	delete(s.members, key)
	g.MemberCount--
	return []Event{{Kind: EventMemberLeft, Group: id, Account: caller}}, nil
}

// acceptMember promotes a pending request to full membership. Owner-only;
// the capacity check happens here because pending requests do not reserve
// a slot.
func (d *Dispatcher) acceptMember(caller AccountID, id GroupID, account AccountID) ([]Event, error) {
	s := d.state

	g, ok := s.groups[id]
	if !ok {
		return nil, reject(CodeGroupNotFound, id, caller)
	}
	if g.Owner != caller {
		return nil, reject(CodeNotOwner, id, caller)
	}

	key := memberKey{Group: id, Account: account}
	if s.members[key] != StatusPending {
		return nil, reject(CodeNotPending, id, account)
	}
	if g.MemberCount == g.MaxSize {
		return nil, reject(CodeGroupFull, id, account)
	}

	s.members[key] = StatusMember
	g.MemberCount++
	return []Event{{Kind: EventMemberAccepted, Group: id, Account: account}}, nil
}

// removeMember is the owner's involuntary removal. On a Member it revokes
// membership; on a Pending request it acts as a rejection. The owner's
// own record is protected the same way leave protects it.
func (d *Dispatcher) removeMember(caller AccountID, id GroupID, account AccountID) ([]Event, error) {
	s := d.state

	g, ok := s.groups[id]
	if !ok {
		return nil, reject(CodeGroupNotFound, id, caller)
	}
	if g.Owner != caller {
		return nil, reject(CodeNotOwner, id, caller)
	}
	if account == g.Owner {
		return nil, reject(CodeOwnerCannotLeave, id, account)
	}

	key := memberKey{Group: id, Account: account}
	switch s.members[key] {
	case StatusMember:
		delete(s.members, key)
		g.MemberCount--
		return []Event{{Kind: EventMemberRemoved, Group: id, Account: account}}, nil
	case StatusPending:
		delete(s.members, key)
		return []Event{{Kind: EventMemberRequestRejected, Group: id, Account: account}}, nil
	default:
		return nil, reject(CodeNotAMember, id, account)
	}
}

// addMember is the owner's involuntary add, bypassing approval. A pending
// request is promoted directly; a fresh account is admitted directly.
// Capacity is checked either way.
func (d *Dispatcher) addMember(caller AccountID, id GroupID, account AccountID) ([]Event, error) {
	s := d.state

	g, ok := s.groups[id]
	if !ok {
		return nil, reject(CodeGroupNotFound, id, caller)
	}
	if g.Owner != caller {
		return nil, reject(CodeNotOwner, id, caller)
	}

	key := memberKey{Group: id, Account: account}
	if s.members[key] == StatusMember {
		return nil, reject(CodeAlreadyMember, id, account)
	}
	if g.MemberCount == g.MaxSize {
		return nil, reject(CodeGroupFull, id, account)
	}

	s.members[key] = StatusMember
	g.MemberCount++
	return []Event{{Kind: EventMemberJoined, Group: id, Account: account}}, nil
}
