// Package quotestate holds the observable edit-session state of one quote:
// metadata, days, subconcepts, totals, dirty flag and a bounded change
// history. One State per editor instance.
package quotestate

import (
	"encoding/json"
	"reflect"
	"sync"
	"time"

	"amexing/internal/model"
	"amexing/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Schema keys. UI keys never touch the dirty flag.
const (
	KeyQuoteID           = "quoteId"
	KeyQuoteData         = "quoteData"
	KeyRateID            = "rateId"
	KeyRateName          = "rateName"
	KeyNumberOfPeople    = "numberOfPeople"
	KeyServiceItems      = "serviceItems"
	KeyIsLoading         = "isLoading"
	KeyIsSaving          = "isSaving"
	KeyLastSaved         = "lastSaved"
	KeyHasUnsavedChanges = "hasUnsavedChanges"
	KeyValidationErrors  = "validationErrors"
)

var uiKeys = map[string]bool{
	KeyIsLoading:         true,
	KeyIsSaving:          true,
	KeyLastSaved:         true,
	KeyHasUnsavedChanges: true,
}

// DefaultMaxHistory caps the change log; oldest entries are evicted first.
const DefaultMaxHistory = 50

// Change is one entry of the bounded change history.
type Change struct {
	Timestamp time.Time   `json:"timestamp"`
	Key       string      `json:"key"`
	OldValue  interface{} `json:"oldValue"`
	NewValue  interface{} `json:"newValue"`
}

// Subscriber receives the key that changed plus old and new value.
type Subscriber func(key string, oldValue, newValue interface{})

type notification struct {
	key      string
	oldValue interface{}
	newValue interface{}
	subs     []Subscriber
}

// State is the reactive container. All access is serialized through one
// mutex; subscribers run outside the lock so they may call back into the
// container freely.
type State struct {
	mu          sync.Mutex
	fields      map[string]interface{}
	subscribers map[string]map[int]Subscriber
	nextHandle  int
	history     []Change
	maxHistory  int
	ivaRate     decimal.Decimal
}

// Option tweaks construction defaults.
type Option func(*State)

func WithMaxHistory(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.maxHistory = n
		}
	}
}

func WithIVARate(rate decimal.Decimal) Option {
	return func(s *State) {
		if rate.IsPositive() {
			s.ivaRate = rate
		}
	}
}

func New(opts ...Option) *State {
	s := &State{
		fields:      defaultFields(),
		subscribers: make(map[string]map[int]Subscriber),
		maxHistory:  DefaultMaxHistory,
		ivaRate:     decimal.NewFromFloat(0.16),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultFields() map[string]interface{} {
	return map[string]interface{}{
		KeyQuoteID:           "",
		KeyQuoteData:         nil,
		KeyRateID:            "",
		KeyRateName:          "",
		KeyNumberOfPeople:    0,
		KeyServiceItems:      model.ServiceItems{},
		KeyIsLoading:         false,
		KeyIsSaving:          false,
		KeyLastSaved:         nil,
		KeyHasUnsavedChanges: false,
		KeyValidationErrors:  []string{},
	}
}

// ── Core operations ──────────────────────────────────────────────────────────

// Get returns the current value for key (nil when unset).
func (s *State) Get(key string) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields[key]
}

// GetAll returns a shallow copy of every field.
func (s *State) GetAll() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]interface{}, len(s.fields))
	for k, v := range s.fields {
		out[k] = v
	}
	return out
}

// Set stores value under key and notifies subscribers on real change.
func (s *State) Set(key string, value interface{}) {
	s.apply(map[string]interface{}{key: value}, false)
}

// SetSilent stores value without notifying and without touching the dirty flag.
func (s *State) SetSilent(key string, value interface{}) {
	s.apply(map[string]interface{}{key: value}, true)
}

// SetMultiple applies several updates as one batch; each changed key gets its
// own history entry and its own notification round.
func (s *State) SetMultiple(updates map[string]interface{}) {
	s.apply(updates, false)
}

// SetMultipleSilent applies updates without notifications or dirty tracking.
func (s *State) SetMultipleSilent(updates map[string]interface{}) {
	s.apply(updates, true)
}

// apply is the single mutation path. Equality is checked first so no-op sets
// fire nothing; notifications run after the lock is released.
func (s *State) apply(updates map[string]interface{}, silent bool) {
	s.mu.Lock()

	var pending []notification
	dirty := false

	for key, value := range updates {
		old, had := s.fields[key]
		if had && reflect.DeepEqual(old, value) {
			continue
		}
		s.fields[key] = value

		if !silent {
			s.recordChange(key, old, value)
			if !uiKeys[key] {
				dirty = true
			}
			if subs := s.snapshotSubscribers(key); len(subs) > 0 {
				pending = append(pending, notification{key: key, oldValue: old, newValue: value, subs: subs})
			}
		}
	}

	if dirty && s.fields[KeyHasUnsavedChanges] != true {
		old := s.fields[KeyHasUnsavedChanges]
		s.fields[KeyHasUnsavedChanges] = true
		s.recordChange(KeyHasUnsavedChanges, old, true)
		if subs := s.snapshotSubscribers(KeyHasUnsavedChanges); len(subs) > 0 {
			pending = append(pending, notification{key: KeyHasUnsavedChanges, oldValue: old, newValue: true, subs: subs})
		}
	}

	s.mu.Unlock()

	for _, n := range pending {
		for _, sub := range n.subs {
			s.notify(sub, n.key, n.oldValue, n.newValue)
		}
	}
}

// notify runs one subscriber; a panic is logged and does not halt the others.
func (s *State) notify(sub Subscriber, key string, oldValue, newValue interface{}) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("key", key).Interface("panic", r).Msg("subscriber panicked")
		}
	}()
	sub(key, oldValue, newValue)
}

// recordChange appends to the bounded history (must be called under lock).
func (s *State) recordChange(key string, oldValue, newValue interface{}) {
	s.history = append(s.history, Change{
		Timestamp: time.Now(),
		Key:       key,
		OldValue:  oldValue,
		NewValue:  newValue,
	})
	if len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
}

// snapshotSubscribers copies the handler list for key (must be called under lock).
func (s *State) snapshotSubscribers(key string) []Subscriber {
	m := s.subscribers[key]
	if len(m) == 0 {
		return nil
	}
	out := make([]Subscriber, 0, len(m))
	for _, sub := range m {
		out = append(out, sub)
	}
	return out
}

// Subscribe registers a callback for one key and returns its unsubscribe func.
func (s *State) Subscribe(key string, sub Subscriber) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribers[key] == nil {
		s.subscribers[key] = make(map[int]Subscriber)
	}
	handle := s.nextHandle
	s.nextHandle++
	s.subscribers[key][handle] = sub

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers[key], handle)
	}
}

// History returns a copy of the change log.
func (s *State) History() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Change, len(s.history))
	copy(out, s.history)
	return out
}

// MarkAsSaved clears the dirty flag and stamps lastSaved without firing
// subscribers.
func (s *State) MarkAsSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fields[KeyHasUnsavedChanges] = false
	s.fields[KeyLastSaved] = time.Now()
}

// Reset restores defaults. With keepQuoteData the loaded quote snapshot
// survives; everything else, including history, is dropped.
func (s *State) Reset(keepQuoteData bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quoteData := s.fields[KeyQuoteData]
	s.fields = defaultFields()
	if keepQuoteData {
		s.fields[KeyQuoteData] = quoteData
	}
	s.history = nil
}

// ── Persistence envelope ─────────────────────────────────────────────────────

// ToJSON serializes every field; subscribers and history are transient and
// excluded.
func (s *State) ToJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.Marshal(s.fields)
}

// FromJSON merges a serialized envelope into the current state. Known keys
// are decoded into their schema types; unknown keys are preserved as raw
// values. The merge is silent.
func (s *State) FromJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, value := range raw {
		switch key {
		case KeyServiceItems:
			var items model.ServiceItems
			if err := json.Unmarshal(value, &items); err != nil {
				return err
			}
			s.fields[key] = items
		case KeyNumberOfPeople:
			var n int
			if err := json.Unmarshal(value, &n); err != nil {
				return err
			}
			s.fields[key] = n
		case KeyIsLoading, KeyIsSaving, KeyHasUnsavedChanges:
			var b bool
			if err := json.Unmarshal(value, &b); err != nil {
				return err
			}
			s.fields[key] = b
		case KeyValidationErrors:
			var errs []string
			if err := json.Unmarshal(value, &errs); err != nil {
				return err
			}
			s.fields[key] = errs
		case KeyQuoteID, KeyRateID, KeyRateName:
			var str string
			if err := json.Unmarshal(value, &str); err != nil {
				return err
			}
			s.fields[key] = str
		default:
			var v interface{}
			if err := json.Unmarshal(value, &v); err != nil {
				return err
			}
			s.fields[key] = v
		}
	}
	return nil
}

// ── Day and subconcept mutators ──────────────────────────────────────────────

// ServiceItems returns a deep copy of the current priced body. Mutators work
// on the copy so the stored value never changes in place; the change check in
// Set stays meaningful.
func (s *State) ServiceItems() model.ServiceItems {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, _ := s.fields[KeyServiceItems].(model.ServiceItems)
	return cloneItems(items)
}

func cloneItems(items model.ServiceItems) model.ServiceItems {
	out := items
	out.Days = make([]model.Day, len(items.Days))
	for i, day := range items.Days {
		out.Days[i] = day
		out.Days[i].Subconcepts = make([]model.Subconcept, len(day.Subconcepts))
		copy(out.Days[i].Subconcepts, day.Subconcepts)
	}
	return out
}

// AddDay appends a day numbered N+1 and recalculates totals.
func (s *State) AddDay(day model.Day) {
	items := s.ServiceItems()
	day.DayNumber = len(items.Days) + 1
	items.Days = append(items.Days, day)
	s.commitItems(items)
}

// UpdateDay replaces the day at index (0-based); the day number is preserved.
func (s *State) UpdateDay(index int, day model.Day) {
	items := s.ServiceItems()
	if index < 0 || index >= len(items.Days) {
		return
	}
	day.DayNumber = items.Days[index].DayNumber
	items.Days[index] = day
	s.commitItems(items)
}

// RemoveDay deletes the day at index and renumbers the rest 1..N.
func (s *State) RemoveDay(index int) {
	items := s.ServiceItems()
	if index < 0 || index >= len(items.Days) {
		return
	}
	items.Days = append(items.Days[:index], items.Days[index+1:]...)
	for i := range items.Days {
		items.Days[i].DayNumber = i + 1
	}
	s.commitItems(items)
}

// AddSubconcept appends a subconcept to the day at dayIndex.
func (s *State) AddSubconcept(dayIndex int, sc model.Subconcept) {
	items := s.ServiceItems()
	if dayIndex < 0 || dayIndex >= len(items.Days) {
		return
	}
	items.Days[dayIndex].Subconcepts = append(items.Days[dayIndex].Subconcepts, sc)
	s.commitItems(items)
}

// UpdateSubconcept replaces the subconcept at (dayIndex, scIndex).
func (s *State) UpdateSubconcept(dayIndex, scIndex int, sc model.Subconcept) {
	items := s.ServiceItems()
	if dayIndex < 0 || dayIndex >= len(items.Days) {
		return
	}
	subs := items.Days[dayIndex].Subconcepts
	if scIndex < 0 || scIndex >= len(subs) {
		return
	}
	subs[scIndex] = sc
	s.commitItems(items)
}

// RemoveSubconcept deletes the subconcept at (dayIndex, scIndex).
func (s *State) RemoveSubconcept(dayIndex, scIndex int) {
	items := s.ServiceItems()
	if dayIndex < 0 || dayIndex >= len(items.Days) {
		return
	}
	subs := items.Days[dayIndex].Subconcepts
	if scIndex < 0 || scIndex >= len(subs) {
		return
	}
	items.Days[dayIndex].Subconcepts = append(subs[:scIndex], subs[scIndex+1:]...)
	s.commitItems(items)
}

// RecalculateTotals re-derives day totals, subtotal, IVA and total from the
// current subconcept prices. Idempotent.
func (s *State) RecalculateTotals() {
	items := s.ServiceItems()
	service.RecalculateServiceItems(&items, s.ivaRate)
	s.Set(KeyServiceItems, items)
}

// commitItems recalculates and publishes the mutated body in one step.
func (s *State) commitItems(items model.ServiceItems) {
	service.RecalculateServiceItems(&items, s.ivaRate)
	s.Set(KeyServiceItems, items)
}
