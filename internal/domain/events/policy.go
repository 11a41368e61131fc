package events

import (
	"errors"

	"github.com/gatherpoint/server/internal/auth"
)

// ErrPermissionDenied is returned when a non-admin caller attempts an
// admin-only action. It is distinct from ErrNotFound: the permission check
// runs before any store lookup, so a denied caller cannot probe which ids
// exist.
var ErrPermissionDenied = errors.New("permission denied")

// Actor is the caller identity a request carries. The zero value is the
// anonymous caller.
type Actor struct {
	Subject       string
	Username      string
	Role          auth.Role
	Authenticated bool
}

func Anonymous() Actor {
	return Actor{}
}

func NewActor(subject, username, role string) Actor {
	return Actor{
		Subject:       subject,
		Username:      username,
		Role:          auth.NormalizeRole(role),
		Authenticated: true,
	}
}

func (a Actor) IsAdmin() bool {
	return a.Authenticated && a.Role == auth.RoleAdmin
}

// Policy decides, per caller, which events are visible and which mutations
// are permitted. Events move Pending -> Approved exactly once, and either
// state -> Deleted terminally. The policy never touches store records; it
// only authorizes, denies, or narrows the operations proxied through the
// stores.
//
// Per actor:
//
//	anonymous    create (pending)     view approved
//	member       create (pending)     view approved
//	admin        create (approved)    view approved + pending, approve, delete
//
// Members cannot see pending events, not even their own.
type Policy struct{}

// Owner returns the identity to record as an event's creator. Anonymous
// creation is permitted; it records the AnonymousOwner sentinel.
func (Policy) Owner(actor Actor) string {
	if !actor.Authenticated || actor.Username == "" {
		return AnonymousOwner
	}
	return actor.Username
}

// ApprovedOnCreate reports whether a new event skips the moderation queue.
// Only admin-created events are trusted to publish immediately.
func (Policy) ApprovedOnCreate(actor Actor) bool {
	return actor.IsAdmin()
}

// Scope narrows a requested listing filter to what the actor may see.
// Pending visibility is a filter, not an authorization fault: a non-admin
// asking for pending events gets the approved-only listing, never an error.
func (Policy) Scope(actor Actor, requested Filter) Filter {
	if !actor.IsAdmin() {
		requested.IncludePending = false
	}
	return requested
}

// CanView reports whether the actor may read an individual event. Pending
// events are visible to admins only.
func (Policy) CanView(actor Actor, event *Event) bool {
	return event.Approved || actor.IsAdmin()
}

// CanApprove authorizes the pending -> approved transition.
func (Policy) CanApprove(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	return nil
}

// CanDelete authorizes permanent deletion.
func (Policy) CanDelete(actor Actor) error {
	if !actor.IsAdmin() {
		return ErrPermissionDenied
	}
	return nil
}
