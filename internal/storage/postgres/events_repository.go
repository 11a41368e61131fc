package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

const eventColumns = `id, title, description, event_date, start_minute, owner, approved, created_at`

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	var startMinute *int
	if params.Time != nil {
		minute := params.Time.MinuteOfDay()
		startMinute = &minute
	}

	row := r.queryer().QueryRow(ctx, `
INSERT INTO events (title, description, event_date, start_minute, owner, approved)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+eventColumns,
		params.Title,
		params.Description,
		params.Date,
		startMinute,
		params.Owner,
		params.Approved,
	)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) List(ctx context.Context, filter events.Filter, sort events.Sort) ([]events.Event, error) {
	// Ordering: date per the requested direction, timed entries before
	// untimed ones on the same date, id ascending as the stable tie-break.
	order := `event_date ASC, start_minute ASC NULLS LAST, id ASC`
	if sort == events.SortDateDesc {
		order = `event_date DESC, start_minute ASC NULLS LAST, id ASC`
	}

	rows, err := r.queryer().Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ($1 OR approved)
 ORDER BY `+order,
		filter.IncludePending,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (*events.Event, error) {
	row := r.queryer().QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1
`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) SetApproved(ctx context.Context, id int64) (*events.Event, error) {
	// Single-row update; approving an approved event is a no-op that still
	// returns the row, so the operation is idempotent.
	row := r.queryer().QueryRow(ctx, `
UPDATE events
   SET approved = true
 WHERE id = $1
RETURNING `+eventColumns, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("approve event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.ErrNotFound
	}
	return nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event       events.Event
		description *string
		date        pgtype.Date
		startMinute *int
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&description,
		&date,
		&startMinute,
		&event.Owner,
		&event.Approved,
		&createdAt,
	); err != nil {
		return nil, err
	}

	event.Description = description
	if date.Valid {
		event.Date = date.Time
	}
	if startMinute != nil {
		value := events.TimeOfDayFromMinute(*startMinute)
		event.Time = &value
	}
	if createdAt.Valid {
		event.CreatedAt = createdAt.Time
	}
	return &event, nil
}

func (r *EventRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}
