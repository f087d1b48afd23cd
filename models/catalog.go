package models

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Catalog aggregates the three stores behind the read side of the API:
// event documents from Mongo, participant counts and rosters from Postgres
// registrations, creator identity from Postgres users. Counts are derived at
// read time and never stored. The event list and its annotations are read at
// slightly different times, so a benign read skew is possible under
// concurrent writes.
type Catalog struct {
	events EventRepository
	users  UserRepository
	regs   RegistrationRepository
}

func NewCatalog(events EventRepository, users UserRepository, regs RegistrationRepository) *Catalog {
	return &Catalog{events: events, users: users, regs: regs}
}

// List returns the filtered catalog sorted by event date ascending, each
// event annotated with creator identity and participant count.
func (c *Catalog) List(ctx context.Context, search, category string) ([]EventView, error) {
	events, err := c.events.List(ctx, search, category)
	if err != nil {
		return nil, err
	}
	return c.annotate(ctx, events)
}

// Get returns a single event in the same shape as a list item.
func (c *Catalog) Get(ctx context.Context, id string) (EventView, error) {
	e, err := c.events.ByID(ctx, id)
	if err != nil {
		return EventView{}, err
	}
	views, err := c.annotate(ctx, []Event{e})
	if err != nil {
		return EventView{}, err
	}
	return views[0], nil
}

// CreatedBy returns the events a user owns, newest first, each with its
// participant username list. Rosters are fetched one query per event, in
// parallel; the aggregate is not atomic.
func (c *Catalog) CreatedBy(ctx context.Context, userID int64) ([]CreatedEventView, error) {
	events, err := c.events.ByCreator(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := c.regs.CountByEvent(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CreatedEventView, len(events))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range events {
		views[i] = CreatedEventView{
			Event:            e,
			ParticipantCount: counts[e.ID],
			Participants:     []string{},
		}
		g.Go(func() error {
			parts, err := c.regs.ParticipantsByEvent(gctx, e.ID)
			if err != nil {
				return err
			}
			names := make([]string, len(parts))
			for j, p := range parts {
				names[j] = p.Username
			}
			views[i].Participants = names
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

// RegisteredBy returns the events a user registered for, most recent
// registration first, annotated with registration time and payment status.
// Registrations whose event no longer exists in the catalog are skipped.
func (c *Catalog) RegisteredBy(ctx context.Context, userID int64) ([]RegisteredEventView, error) {
	regs, err := c.regs.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(regs))
	for i, reg := range regs {
		ids[i] = reg.EventID
	}
	events, err := c.events.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := []RegisteredEventView{}
	for _, reg := range regs {
		e, ok := events[reg.EventID]
		if !ok {
			continue
		}
		views = append(views, RegisteredEventView{
			Event:         e,
			RegisteredAt:  reg.RegisteredAt,
			PaymentStatus: reg.PaymentStatus,
		})
	}
	return views, nil
}

func (c *Catalog) annotate(ctx context.Context, events []Event) ([]EventView, error) {
	ids := make([]string, len(events))
	creatorIDs := make([]int64, 0, len(events))
	seen := map[int64]bool{}
	for i, e := range events {
		ids[i] = e.ID
		if !seen[e.CreatorID] {
			seen[e.CreatorID] = true
			creatorIDs = append(creatorIDs, e.CreatorID)
		}
	}

	counts, err := c.regs.CountByEvent(ctx, ids)
	if err != nil {
		return nil, err
	}
	creators, err := c.users.ByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}

	views := make([]EventView, len(events))
	for i, e := range events {
		v := EventView{Event: e, ParticipantCount: counts[e.ID]}
		if u, ok := creators[e.CreatorID]; ok {
			v.CreatorName = u.Username
			v.CreatorFullName = u.FullName
		}
		views[i] = v
	}
	return views, nil
}
