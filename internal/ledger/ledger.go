package ledger

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/transitdesk/busboard/internal/model"
	"github.com/transitdesk/busboard/internal/store"
)

// Mutation actions reported to subscribers.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionBoarded = "boarded"
)

// Event describes a committed ledger mutation. The booking is a snapshot
// taken after the mutation (for deletes, the state just before removal).
type Event struct {
	Action  string
	Booking model.Booking
}

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Ledger is the single-writer, in-memory source of truth for bookings.
// Every operation runs under one mutex, which is the serializing boundary
// that makes the ledger safe to expose over HTTP. A Store, when present,
// receives a full snapshot after each committed mutation; a failed write
// is logged and remembered but never rolls back the in-memory state.
type Ledger struct {
	mu        sync.Mutex
	bookings  []*model.Booking // storage order, oldest first
	st        store.Store      // nil disables persistence
	listeners []func(Event)
	saveErr   error

	now func() time.Time
}

// New returns an empty ledger backed by the given store. Passing a nil
// store yields a purely in-memory ledger.
func New(st store.Store) *Ledger {
	return &Ledger{st: st, now: func() time.Time { return time.Now().UTC() }}
}

// Hydrate replaces the ledger contents with the snapshot held by the
// store. It is meant to run once at startup, before the ledger is
// exposed to callers.
func (l *Ledger) Hydrate(ctx context.Context) error {
	if l.st == nil {
		return nil
	}
	loaded, err := l.st.Load(ctx)
	if err != nil {
		return fmt.Errorf("ledger: load snapshot: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bookings = l.bookings[:0]
	for _, b := range loaded {
		cp := b.Clone()
		cp.Seats = model.SortSeats(cp.Seats)
		l.bookings = append(l.bookings, &cp)
	}
	return nil
}

// Subscribe registers a callback invoked after every committed mutation.
// Callbacks run synchronously outside the ledger lock, in registration
// order. Registration is not safe to call concurrently with mutations;
// wire subscribers during composition.
func (l *Ledger) Subscribe(fn func(Event)) {
	l.listeners = append(l.listeners, fn)
}

// LastSaveErr reports the error from the most recent snapshot write, or
// nil when it succeeded. It lets the transport layer warn the operator
// that a change may not survive a restart.
func (l *Ledger) LastSaveErr() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.saveErr
}

// SeatOwnership maps every seat booked on the given date to the booking
// that holds it. Seats absent from the map are free.
func (l *Ledger) SeatOwnership(date string) map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seatOwnershipLocked(date)
}

func (l *Ledger) seatOwnershipLocked(date string) map[string]string {
	owned := make(map[string]string)
	for _, b := range l.bookings {
		if b.TravelDate != date {
			continue
		}
		for _, s := range b.Seats {
			owned[s] = b.ID
		}
	}
	return owned
}

// SeatCountForMobile sums seat counts across the mobile's bookings on the
// given date. When excludeID is non-empty, that booking is skipped so an
// edit does not count against its own prior state.
func (l *Ledger) SeatCountForMobile(mobile, date, excludeID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seatCountLocked(mobile, date, excludeID)
}

func (l *Ledger) seatCountLocked(mobile, date, excludeID string) int {
	n := 0
	for _, b := range l.bookings {
		if b.MobileNumber != mobile || b.TravelDate != date {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		n += len(b.Seats)
	}
	return n
}

// BookingsForDate returns snapshots of all bookings for the date in
// storage order. A date with no bookings yields an empty slice.
func (l *Ledger) BookingsForDate(date string) []model.Booking {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Booking, 0)
	for _, b := range l.bookings {
		if b.TravelDate == date {
			out = append(out, b.Clone())
		}
	}
	return out
}

// BookingByID returns a snapshot of the booking with the given id.
func (l *Ledger) BookingByID(id string) (model.Booking, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, b := range l.bookings {
		if b.ID == id {
			return b.Clone(), true
		}
	}
	return model.Booking{}, false
}

// Create validates and inserts a new booking, returning its snapshot as
// the reservation receipt. Failures are *ValidationError values carrying
// the first violated rule.
func (l *Ledger) Create(ctx context.Context, mobile, date string, seats []string) (model.Booking, error) {
	seats = normalizeSeats(seats)

	l.mu.Lock()
	if err := l.validateLocked(mobile, date, seats, ""); err != nil {
		l.mu.Unlock()
		return model.Booking{}, err
	}
	now := l.now()
	b := &model.Booking{
		ID:           l.newBookingIDLocked(now),
		TravelDate:   date,
		MobileNumber: mobile,
		Seats:        model.SortSeats(seats),
		IsBoarded:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	l.bookings = append(l.bookings, b)
	l.persistLocked(ctx)
	snapshot := b.Clone()
	l.mu.Unlock()

	l.notify(Event{Action: ActionCreated, Booking: snapshot})
	return snapshot, nil
}

// Update replaces the seat set of an existing booking. Mobile number and
// travel date are immutable after creation; validation runs against the
// booking's own mobile and date with the booking excluded, so re-selecting
// seats it already owns is not a conflict.
func (l *Ledger) Update(ctx context.Context, id string, seats []string) (model.Booking, error) {
	seats = normalizeSeats(seats)

	l.mu.Lock()
	b := l.findLocked(id)
	if b == nil {
		l.mu.Unlock()
		return model.Booking{}, ErrBookingNotFound
	}
	if err := l.validateLocked(b.MobileNumber, b.TravelDate, seats, id); err != nil {
		l.mu.Unlock()
		return model.Booking{}, err
	}
	b.Seats = model.SortSeats(seats)
	b.UpdatedAt = l.now()
	l.persistLocked(ctx)
	snapshot := b.Clone()
	l.mu.Unlock()

	l.notify(Event{Action: ActionUpdated, Booking: snapshot})
	return snapshot, nil
}

// Delete removes the booking unconditionally. Deleting an unknown id is
// a no-op, so the operation is idempotent.
func (l *Ledger) Delete(ctx context.Context, id string) {
	l.mu.Lock()
	idx := -1
	for i, b := range l.bookings {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return
	}
	snapshot := l.bookings[idx].Clone()
	l.bookings = append(l.bookings[:idx], l.bookings[idx+1:]...)
	l.persistLocked(ctx)
	l.mu.Unlock()

	l.notify(Event{Action: ActionDeleted, Booking: snapshot})
}

// SetBoarded flips the boarding flag without re-running seat or quota
// validation. An unknown id is a silent no-op.
func (l *Ledger) SetBoarded(ctx context.Context, id string, boarded bool) {
	l.mu.Lock()
	b := l.findLocked(id)
	if b == nil {
		l.mu.Unlock()
		return
	}
	b.IsBoarded = boarded
	b.UpdatedAt = l.now()
	l.persistLocked(ctx)
	snapshot := b.Clone()
	l.mu.Unlock()

	l.notify(Event{Action: ActionBoarded, Booking: snapshot})
}

// validateLocked runs the booking rules in their fixed order and returns
// the first violation. The order is part of the contract: callers and
// tests rely on which rule is reported when several are broken at once.
func (l *Ledger) validateLocked(mobile, date string, seats []string, excludeID string) error {
	if len(seats) == 0 {
		return newValidationError("Please select at least one seat.")
	}
	if len(seats) > model.MaxSeatsPerBooking {
		return newValidationError(fmt.Sprintf("A booking may hold at most %d seats.", model.MaxSeatsPerBooking))
	}
	for _, s := range seats {
		if !model.IsValidSeat(s) {
			return newValidationError(fmt.Sprintf("Seat %q does not exist on this bus.", s))
		}
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return newValidationError("Travel date must be a calendar date in YYYY-MM-DD form.")
	}
	// Date-only comparison: ISO dates compare correctly as strings.
	if today := l.now().Format("2006-01-02"); date < today {
		return newValidationError("Travel date cannot be in the past.")
	}
	if !mobilePattern.MatchString(mobile) {
		return newValidationError("Mobile number must be exactly 10 digits.")
	}
	held := l.seatCountLocked(mobile, date, excludeID)
	if held+len(seats) > model.MaxSeatsPerBooking {
		return newValidationError(fmt.Sprintf(
			"Mobile number %s already holds %d seat(s) on %s; the %d-seat daily limit would be exceeded.",
			mobile, held, date, model.MaxSeatsPerBooking))
	}
	owned := l.seatOwnershipLocked(date)
	var conflicts []string
	owner := ""
	for _, s := range seats {
		if id, ok := owned[s]; ok && id != excludeID {
			conflicts = append(conflicts, s)
			owner = id
		}
	}
	if len(conflicts) > 0 {
		return newValidationError(fmt.Sprintf(
			"Seat(s) %s already booked on %s under booking %s.",
			strings.Join(conflicts, ", "), date, owner))
	}
	return nil
}

func (l *Ledger) findLocked(id string) *model.Booking {
	for _, b := range l.bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// persistLocked writes the full snapshot to the store. Per the current
// persistence policy the in-memory mutation stands even when the write
// fails; the error is logged and kept for LastSaveErr.
func (l *Ledger) persistLocked(ctx context.Context) {
	if l.st == nil {
		return
	}
	snapshot := make([]model.Booking, 0, len(l.bookings))
	for _, b := range l.bookings {
		snapshot = append(snapshot, b.Clone())
	}
	if err := l.st.Save(ctx, snapshot); err != nil {
		log.Printf("ledger: snapshot write failed: %v", err)
		l.saveErr = err
		return
	}
	l.saveErr = nil
}

func (l *Ledger) notify(ev Event) {
	for _, fn := range l.listeners {
		fn(ev)
	}
}

// newBookingIDLocked mints an id of the form BK-YYYYMMDD-XXXXXXXX and
// retries on the (vanishingly unlikely) collision with a stored booking.
func (l *Ledger) newBookingIDLocked(now time.Time) string {
	for {
		suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:8]
		id := fmt.Sprintf("BK-%s-%s", now.Format("20060102"), suffix)
		if l.findLocked(id) == nil {
			return id
		}
	}
}

// normalizeSeats uppercases and deduplicates the requested seat
// identifiers while preserving first-seen order.
func normalizeSeats(seats []string) []string {
	out := make([]string, 0, len(seats))
	seen := make(map[string]struct{}, len(seats))
	for _, s := range seats {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
