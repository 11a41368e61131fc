package events

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when an event id does not exist (or was deleted).
var ErrNotFound = errors.New("event not found")

// AnonymousOwner is recorded as the owner of events created without an
// authenticated caller.
const AnonymousOwner = "anonymous"

// Event is a scheduled entry on the public board. Description and Time are
// pointers: absent is distinct from empty, and an unspecified time of day is
// not midnight.
type Event struct {
	ID          int64
	Title       string
	Description *string
	Date        time.Time
	Time        *TimeOfDay
	Owner       string
	Approved    bool
	CreatedAt   time.Time
}

type CreateParams struct {
	Title       string
	Description *string
	Date        time.Time
	Time        *TimeOfDay
	Owner       string
	Approved    bool
}

// Filter selects which approval states a listing returns.
type Filter struct {
	IncludePending bool
}

// Sort is the caller-requested ordering of a listing. Ties on identical
// date+time break by id ascending, in both directions, so ordering is stable.
type Sort string

const (
	SortDateAsc  Sort = "asc"
	SortDateDesc Sort = "desc"
)

func NormalizeSort(value string) Sort {
	if Sort(value) == SortDateDesc {
		return SortDateDesc
	}
	return SortDateAsc
}

type Repository interface {
	// Create inserts a new event and assigns its id. Ids are never reused,
	// even after deletion.
	Create(ctx context.Context, params CreateParams) (*Event, error)

	// List returns events matching the filter in the requested order. It
	// never returns deleted records.
	List(ctx context.Context, filter Filter, sort Sort) ([]Event, error)

	// GetByID returns a single event or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*Event, error)

	// SetApproved transitions an event to approved. Approving an already
	// approved event succeeds without effect. Returns ErrNotFound when the
	// id does not exist.
	SetApproved(ctx context.Context, id int64) (*Event, error)

	// Delete removes an event permanently. Returns ErrNotFound when the id
	// does not exist, including on a repeated delete.
	Delete(ctx context.Context, id int64) error
}
