package ledger

import (
	"errors"
	"fmt"
)

// Code identifies why a command was rejected. Every rejection carries
// exactly one code; the core never recovers or retries internally, and
// the calling layer is responsible for rendering a human-readable
// message.
type Code string

const (
	// CodeNotOwner: the caller is not the group owner.
	CodeNotOwner Code = "NOT_OWNER"

	// CodeNameTooLong: the group name exceeds the configured byte limit.
	CodeNameTooLong Code = "NAME_TOO_LONG"
	// CodeInvalidSize: max_size is zero or above the configured ceiling.
	CodeInvalidSize Code = "INVALID_SIZE"

	// CodeGroupFull: the group is at capacity.
	CodeGroupFull Code = "GROUP_FULL"
	// CodeOwnerQuotaExceeded: the caller already owns the maximum number
	// of groups.
	CodeOwnerQuotaExceeded Code = "OWNER_QUOTA_EXCEEDED"
	// CodeCapacityBelowMembers: a resize would drop max_size below the
	// current member count.
	CodeCapacityBelowMembers Code = "CAPACITY_BELOW_MEMBERS"

	// CodeGroupNotFound: no group exists under the given id. Removed ids
	// are permanently invalid and also report this code.
	CodeGroupNotFound Code = "GROUP_NOT_FOUND"

	// CodeAlreadyMember: the account already holds Member status.
	CodeAlreadyMember Code = "ALREADY_MEMBER"
	// CodeAlreadyPending: the account already has a pending request.
	CodeAlreadyPending Code = "ALREADY_PENDING"
	// CodeNotAMember: the account does not hold Member status.
	CodeNotAMember Code = "NOT_A_MEMBER"
	// CodeNotPending: the account has no pending request.
	CodeNotPending Code = "NOT_PENDING"
	// CodeOwnerCannotLeave: the owner's membership is removable only by
	// removing the whole group.
	CodeOwnerCannotLeave Code = "OWNER_CANNOT_LEAVE"
	// CodeApprovalNotRequired: request_join targets a group that admits
	// members directly.
	CodeApprovalNotRequired Code = "APPROVAL_NOT_REQUIRED"

	// CodeUnknownCommand: the command kind is not part of the surface.
	CodeUnknownCommand Code = "UNKNOWN_COMMAND"
)

// Kind is the error taxonomy class a Code belongs to.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindCapacity      Kind = "capacity"
	KindNotFound      Kind = "not_found"
	KindStateConflict Kind = "state_conflict"
)

// KindOf classifies a rejection code.
func KindOf(code Code) Kind {
	switch code {
	case CodeNotOwner:
		return KindAuthorization
	case CodeNameTooLong, CodeInvalidSize, CodeUnknownCommand:
		return KindValidation
	case CodeGroupFull, CodeOwnerQuotaExceeded, CodeCapacityBelowMembers:
		return KindCapacity
	case CodeGroupNotFound:
		return KindNotFound
	default:
		return KindStateConflict
	}
}

// Error is a command rejection. It records which group and account the
// rejection concerns so callers can surface the failure without holding
// on to the original command.
type Error struct {
	Code    Code
	Group   GroupID
	Account AccountID
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Group != "" && e.Account != "":
		return fmt.Sprintf("%s (group=%s, account=%s)", e.Code, e.Group, e.Account)
	case e.Group != "":
		return fmt.Sprintf("%s (group=%s)", e.Code, e.Group)
	default:
		return string(e.Code)
	}
}

// reject builds a rejection error.
func reject(code Code, group GroupID, account AccountID) error {
	return &Error{Code: code, Group: group, Account: account}
}

// IsCode reports whether err is a rejection with the given code.
func IsCode(err error, code Code) bool {
	var lerr *Error
	return errors.As(err, &lerr) && lerr.Code == code
}

// CodeOf extracts the rejection code from err, or "" if err is not a
// ledger rejection.
func CodeOf(err error) Code {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Code
	}
	return ""
}
