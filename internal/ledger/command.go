package ledger

import (
	"fmt"

	"github.com/hughlang/groupledger/internal/codec"
)

// CommandKind names one operation on the command surface.
type CommandKind string

const (
	CmdCreateGroup  CommandKind = "create_group"
	CmdUpdateGroup  CommandKind = "update_group"
	CmdRemoveGroup  CommandKind = "remove_group"
	CmdJoinGroup    CommandKind = "join_group"
	CmdRequestJoin  CommandKind = "request_join"
	CmdLeaveGroup   CommandKind = "leave_group"
	CmdAcceptMember CommandKind = "accept_member"
	CmdRemoveMember CommandKind = "remove_member"
	CmdAddMember    CommandKind = "add_member"
)

// CommandKinds lists every mutating command in a fixed order.
var CommandKinds = []CommandKind{
	CmdCreateGroup,
	CmdUpdateGroup,
	CmdRemoveGroup,
	CmdJoinGroup,
	CmdRequestJoin,
	CmdLeaveGroup,
	CmdAcceptMember,
	CmdRemoveMember,
	CmdAddMember,
}

// Command is one state-changing operation. The caller identity travels
// separately (the host authenticates it), so a Command holds only the
// operation kind and its parameters.
//
// update_group carries optional fields: SetName / SetMaxSize select which
// attributes the command touches.
type Command struct {
	Kind    CommandKind
	Group   GroupID
	Account AccountID // target account for accept/remove/add

	Name             string
	MaxSize          uint32
	ApprovalRequired bool

	SetName    bool
	SetMaxSize bool
}

// CreateGroup builds a create_group command.
func CreateGroup(name string, maxSize uint32, approvalRequired bool) Command {
	return Command{
		Kind:             CmdCreateGroup,
		Name:             name,
		MaxSize:          maxSize,
		ApprovalRequired: approvalRequired,
	}
}

// UpdateGroup builds an update_group command. Nil fields are left
// untouched by the update.
func UpdateGroup(group GroupID, name *string, maxSize *uint32) Command {
	cmd := Command{Kind: CmdUpdateGroup, Group: group}
	if name != nil {
		cmd.Name = *name
		cmd.SetName = true
	}
	if maxSize != nil {
		cmd.MaxSize = *maxSize
		cmd.SetMaxSize = true
	}
	return cmd
}

// RemoveGroup builds a remove_group command.
func RemoveGroup(group GroupID) Command {
	return Command{Kind: CmdRemoveGroup, Group: group}
}

// JoinGroup builds a join_group command.
func JoinGroup(group GroupID) Command {
	return Command{Kind: CmdJoinGroup, Group: group}
}

// RequestJoin builds a request_join command.
func RequestJoin(group GroupID) Command {
	return Command{Kind: CmdRequestJoin, Group: group}
}

// LeaveGroup builds a leave_group command.
func LeaveGroup(group GroupID) Command {
	return Command{Kind: CmdLeaveGroup, Group: group}
}

// AcceptMember builds an accept_member command.
func AcceptMember(group GroupID, account AccountID) Command {
	return Command{Kind: CmdAcceptMember, Group: group, Account: account}
}

// RemoveMember builds a remove_member command.
func RemoveMember(group GroupID, account AccountID) Command {
	return Command{Kind: CmdRemoveMember, Group: group, Account: account}
}

// AddMember builds an add_member command.
func AddMember(group GroupID, account AccountID) Command {
	return Command{Kind: CmdAddMember, Group: group, Account: account}
}

// Params encodes the command parameters as a canonical-safe object.
// The encoding is the wire form logged by the store; ParseCommand is its
// inverse.
func (c Command) Params() codec.Obj {
	obj := codec.Obj{}
	switch c.Kind {
	case CmdCreateGroup:
		obj["name"] = codec.Str(c.Name)
		obj["max_size"] = codec.Int(int64(c.MaxSize))
		obj["approval_required"] = codec.Bool(c.ApprovalRequired)
	case CmdUpdateGroup:
		obj["group"] = codec.Str(c.Group)
		if c.SetName {
			obj["name"] = codec.Str(c.Name)
		}
		if c.SetMaxSize {
			obj["max_size"] = codec.Int(int64(c.MaxSize))
		}
	case CmdAcceptMember, CmdRemoveMember, CmdAddMember:
		obj["group"] = codec.Str(c.Group)
		obj["account"] = codec.Str(c.Account)
	default:
		obj["group"] = codec.Str(c.Group)
	}
	return obj
}

// ID computes the content-addressed command identifier. The id covers the
// caller, kind, parameters, and log position, so the same logical command
// at the same position hashes identically on every replica.
func (c Command) ID(caller AccountID, seq int64) string {
	return codec.MustHashObj(DomainCommand, codec.Obj{
		"caller": codec.Str(caller),
		"kind":   codec.Str(c.Kind),
		"params": c.Params(),
		"seq":    codec.Int(seq),
	})
}

// ParseCommand decodes a logged command from its kind and parameter
// object. It is strict: missing or mistyped fields are errors, because a
// malformed log entry means the log itself is corrupt.
func ParseCommand(kind CommandKind, params codec.Obj) (Command, error) {
	cmd := Command{Kind: kind}

	switch kind {
	case CmdCreateGroup:
		name, err := paramStr(params, "name")
		if err != nil {
			return Command{}, err
		}
		size, err := paramInt(params, "max_size")
		if err != nil {
			return Command{}, err
		}
		approval, err := paramBool(params, "approval_required")
		if err != nil {
			return Command{}, err
		}
		cmd.Name = name
		cmd.MaxSize = size
		cmd.ApprovalRequired = approval

	case CmdUpdateGroup:
		group, err := paramStr(params, "group")
		if err != nil {
			return Command{}, err
		}
		cmd.Group = GroupID(group)
		if _, ok := params["name"]; ok {
			name, err := paramStr(params, "name")
			if err != nil {
				return Command{}, err
			}
			cmd.Name = name
			cmd.SetName = true
		}
		if _, ok := params["max_size"]; ok {
			size, err := paramInt(params, "max_size")
			if err != nil {
				return Command{}, err
			}
			cmd.MaxSize = size
			cmd.SetMaxSize = true
		}

	case CmdAcceptMember, CmdRemoveMember, CmdAddMember:
		group, err := paramStr(params, "group")
		if err != nil {
			return Command{}, err
		}
		account, err := paramStr(params, "account")
		if err != nil {
			return Command{}, err
		}
		cmd.Group = GroupID(group)
		cmd.Account = AccountID(account)

	case CmdRemoveGroup, CmdJoinGroup, CmdRequestJoin, CmdLeaveGroup:
		group, err := paramStr(params, "group")
		if err != nil {
			return Command{}, err
		}
		cmd.Group = GroupID(group)

	default:
		return Command{}, fmt.Errorf("unknown command kind %q", kind)
	}

	return cmd, nil
}

func paramStr(params codec.Obj, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing parameter %q", key)
	}
	s, ok := v.(codec.Str)
	if !ok {
		return "", fmt.Errorf("parameter %q: expected string, got %T", key, v)
	}
	return string(s), nil
}

func paramInt(params codec.Obj, key string) (uint32, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", key)
	}
	n, ok := v.(codec.Int)
	if !ok {
		return 0, fmt.Errorf("parameter %q: expected integer, got %T", key, v)
	}
	if n < 0 || int64(n) > int64(^uint32(0)) {
		return 0, fmt.Errorf("parameter %q: %d out of range", key, int64(n))
	}
	return uint32(n), nil
}

func paramBool(params codec.Obj, key string) (bool, error) {
	v, ok := params[key]
	if !ok {
		return false, fmt.Errorf("missing parameter %q", key)
	}
	b, ok := v.(codec.Bool)
	if !ok {
		return false, fmt.Errorf("parameter %q: expected bool, got %T", key, v)
	}
	return bool(b), nil
}
