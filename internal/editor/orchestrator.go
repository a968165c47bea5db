// Package editor ties one quote edit session together: it mounts the quote
// into the state container, wires state changes to cache invalidation, and
// commits the priced body back to the quote endpoint.
package editor

import (
	"context"
	"fmt"
	"sync"

	"amexing/internal/model"
	"amexing/internal/quotestate"
	"amexing/internal/readpath"

	"github.com/rs/zerolog/log"
)

// Orchestrator drives one editor session. It owns its read path and state;
// nothing is shared across sessions.
type Orchestrator struct {
	client  *readpath.Client
	state   *quotestate.State
	quoteID string
	unsubs  []func()
}

func New(client *readpath.Client, state *quotestate.State, quoteID string) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		state:   state,
		quoteID: quoteID,
	}
	o.wire()
	return o
}

func (o *Orchestrator) State() *quotestate.State { return o.state }
func (o *Orchestrator) Client() *readpath.Client { return o.client }

// wire connects state changes to the cache invalidation intents.
func (o *Orchestrator) wire() {
	o.unsubs = append(o.unsubs,
		o.state.Subscribe(quotestate.KeyNumberOfPeople, func(key string, oldValue, newValue interface{}) {
			n := o.client.Cache().InvalidateIntent(readpath.InvalidateByPeople)
			log.Debug().Str("quote_id", o.quoteID).Int("removed", n).Msg("people changed, people-scoped cache dropped")
		}),
		o.state.Subscribe(quotestate.KeyRateID, func(key string, oldValue, newValue interface{}) {
			n := o.client.Cache().InvalidateIntent(readpath.InvalidateByRate)
			log.Debug().Str("quote_id", o.quoteID).Int("removed", n).Msg("rate changed, rate-scoped cache dropped")
		}),
		o.state.Subscribe(quotestate.KeyServiceItems, func(key string, oldValue, newValue interface{}) {
			oldItems, _ := oldValue.(model.ServiceItems)
			newItems, _ := newValue.(model.ServiceItems)
			moved := movedDays(oldItems, newItems)
			if len(moved) == 0 {
				return
			}
			n := o.client.Cache().InvalidateIntent(readpath.InvalidateByDate)
			log.Debug().Str("quote_id", o.quoteID).Int("removed", n).Msg("day date changed, date-scoped cache dropped")
			o.refetchVehicleLists(context.Background(), newItems, moved)
		}),
	)
}

// movedDays returns the indices of the days whose date differs between two
// bodies. Adding or removing a day is not a date move.
func movedDays(oldItems, newItems model.ServiceItems) []int {
	if len(oldItems.Days) != len(newItems.Days) {
		return nil
	}
	var moved []int
	for i := range newItems.Days {
		if oldItems.Days[i].DayDate != newItems.Days[i].DayDate {
			moved = append(moved, i)
		}
	}
	return moved
}

// refetchVehicleLists re-queries the tour vehicle lists for the days whose
// date moved, so the editor reflects availability on the new dates.
// Best-effort: failures are logged and swallowed, the next read fetches on
// demand.
func (o *Orchestrator) refetchVehicleLists(ctx context.Context, items model.ServiceItems, dayIdx []int) {
	rateID, _ := o.state.Get(quotestate.KeyRateID).(string)
	people, _ := o.state.Get(quotestate.KeyNumberOfPeople).(int)
	if rateID == "" {
		return
	}

	var wg sync.WaitGroup
	for _, i := range dayIdx {
		day := items.Days[i]
		for _, sc := range day.Subconcepts {
			if sc.Type != "tour" || sc.DestinationID == "" {
				continue
			}
			wg.Add(1)
			go func(destID, dayDate string) {
				defer wg.Done()
				if _, err := o.client.ListTourVehicles(ctx, rateID, destID, people, dayDate); err != nil {
					log.Warn().Str("quote_id", o.quoteID).Str("destination_id", destID).
						Str("day_date", dayDate).Err(err).Msg("vehicle refetch failed")
				}
			}(sc.DestinationID, day.DayDate)
		}
	}
	wg.Wait()
}

// Mount loads the quote, populates the state, and warms the read path.
// Population is silent: a freshly mounted editor is not dirty.
func (o *Orchestrator) Mount(ctx context.Context) error {
	o.state.Set(quotestate.KeyIsLoading, true)
	defer o.state.Set(quotestate.KeyIsLoading, false)

	quote, err := o.client.GetQuote(ctx, o.quoteID)
	if err != nil {
		return fmt.Errorf("cargar cotización %s: %w", o.quoteID, err)
	}

	rateID := ""
	if quote.RateID != nil {
		rateID = *quote.RateID
	}
	o.state.SetMultipleSilent(map[string]interface{}{
		quotestate.KeyQuoteID:        quote.ID,
		quotestate.KeyQuoteData:      quote,
		quotestate.KeyRateID:         rateID,
		quotestate.KeyRateName:       quote.RateName,
		quotestate.KeyNumberOfPeople: quote.NumberOfPeople,
		quotestate.KeyServiceItems:   quote.ServiceItems,
	})

	o.client.Prefetch(ctx, o.quoteID, rateID)
	return nil
}

// Save commits the current priced body. On success the dirty flag is cleared;
// on failure it stays set so the UI keeps offering the retry.
func (o *Orchestrator) Save(ctx context.Context) error {
	o.state.Set(quotestate.KeyIsSaving, true)
	defer o.state.Set(quotestate.KeyIsSaving, false)

	items := o.state.ServiceItems()
	resp, err := o.client.SaveServiceItems(ctx, o.quoteID, items)
	if err != nil {
		return fmt.Errorf("guardar cotización %s: %w", o.quoteID, err)
	}

	o.state.SetSilent(quotestate.KeyQuoteData, resp)
	o.state.MarkAsSaved()
	return nil
}

// Unmount releases every subscription this session registered.
func (o *Orchestrator) Unmount() {
	for _, unsub := range o.unsubs {
		unsub()
	}
	o.unsubs = nil
}
