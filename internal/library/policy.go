package library

// Operation identifies an action a caller wants to perform. Every handler
// routes its role/ownership check through Decide so the rules live in one
// place instead of being repeated per endpoint.
type Operation int

const (
	OpUserList Operation = iota
	OpUserCreate
	OpUserRead
	OpUserUpdate
	OpUserDelete
	OpBookRead
	OpBookWrite
	OpBorrow
	OpReturn
	OpLoanList
)

// Decide is the access policy: nil means allow. ownerID is the id of the
// user who owns the resource under access, or 0 when ownership does not
// apply. It is a pure function with no side effects.
//
// Rules, in order:
//   - unauthenticated callers are rejected outright
//   - user management (list/create/delete) is admin only
//   - a user may read/update their own record; admin may read/update any
//   - book reads are open to any authenticated caller; writes are admin only
//   - borrow/return are scoped to the caller themself, admin included
//   - loan listing is open; the service layer narrows non-admins to self
func Decide(actor *User, op Operation, ownerID int64) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	switch op {
	case OpUserList, OpUserCreate, OpUserDelete:
		if !actor.IsStaff {
			return ErrPermissionDenied
		}
	case OpUserRead, OpUserUpdate:
		if !actor.IsStaff && actor.ID != ownerID {
			return ErrPermissionDenied
		}
	case OpBookRead, OpLoanList:
		// any authenticated caller
	case OpBookWrite:
		if !actor.IsStaff {
			return ErrPermissionDenied
		}
	case OpBorrow, OpReturn:
		if actor.ID != ownerID {
			return ErrPermissionDenied
		}
	default:
		return ErrPermissionDenied
	}
	return nil
}
