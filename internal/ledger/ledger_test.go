package ledger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/transitdesk/busboard/internal/model"
)

// fakeStore records every snapshot it receives and can simulate a
// failing backend.
type fakeStore struct {
	snapshots [][]model.Booking
	loaded    []model.Booking
	failSave  error
}

func (f *fakeStore) Load(ctx context.Context) ([]model.Booking, error) {
	return f.loaded, nil
}

func (f *fakeStore) Save(ctx context.Context, bookings []model.Booking) error {
	if f.failSave != nil {
		return f.failSave
	}
	f.snapshots = append(f.snapshots, bookings)
	return nil
}

var fixedNow = time.Date(2030, 6, 1, 9, 0, 0, 0, time.UTC)

// newTestLedger pins the clock so "today" is 2030-06-01 regardless of
// when the tests run.
func newTestLedger(st *fakeStore) *Ledger {
	var l *Ledger
	if st != nil {
		l = New(st)
	} else {
		l = New(nil)
	}
	l.now = func() time.Time { return fixedNow }
	return l
}

const (
	today    = "2030-06-01"
	tomorrow = "2030-06-02"
)

func mustCreate(t *testing.T, l *Ledger, mobile, date string, seats ...string) model.Booking {
	t.Helper()
	b, err := l.Create(context.Background(), mobile, date, seats)
	if err != nil {
		t.Fatalf("Create(%s, %s, %v): %v", mobile, date, seats, err)
	}
	return b
}

func TestCreateReturnsReceipt(t *testing.T) {
	l := newTestLedger(nil)
	b := mustCreate(t, l, "9876543210", tomorrow, "c3", "A1", "B2")

	if !strings.HasPrefix(b.ID, "BK-20300601-") {
		t.Errorf("booking id = %q, want BK-20300601-XXXXXXXX form", b.ID)
	}
	if got, want := strings.Join(b.Seats, ","), "A1,B2,C3"; got != want {
		t.Errorf("seats = %s, want %s (uppercased, sorted by position)", got, want)
	}
	if b.IsBoarded {
		t.Error("new booking must not be boarded")
	}
	if !b.CreatedAt.Equal(fixedNow) || !b.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps = %v/%v, want %v", b.CreatedAt, b.UpdatedAt, fixedNow)
	}
	if b.TravelDate != tomorrow || b.MobileNumber != "9876543210" {
		t.Errorf("receipt fields = %s/%s", b.TravelDate, b.MobileNumber)
	}
}

func TestValidationOrder(t *testing.T) {
	cases := []struct {
		name    string
		mobile  string
		date    string
		seats   []string
		wantMsg string
	}{
		{
			name:    "empty selection reported before anything else",
			mobile:  "123", // also invalid
			date:    "2020-01-01",
			seats:   nil,
			wantMsg: "Please select at least one seat.",
		},
		{
			name:    "over six seats",
			mobile:  "123",
			date:    "2020-01-01",
			seats:   []string{"A1", "A2", "A3", "A4", "B1", "B2", "B3"},
			wantMsg: "A booking may hold at most 6 seats.",
		},
		{
			name:    "unknown seat",
			mobile:  "123",
			date:    "2020-01-01",
			seats:   []string{"Z9"},
			wantMsg: `Seat "Z9" does not exist on this bus.`,
		},
		{
			name:    "malformed date",
			mobile:  "123",
			date:    "01/06/2030",
			seats:   []string{"A1"},
			wantMsg: "Travel date must be a calendar date in YYYY-MM-DD form.",
		},
		{
			// Pins the checking order: with a past date AND a bad
			// mobile, the date failure is the one reported.
			name:    "past date reported before malformed mobile",
			mobile:  "123",
			date:    "2020-01-01",
			seats:   []string{"A1"},
			wantMsg: "Travel date cannot be in the past.",
		},
		{
			name:    "malformed mobile",
			mobile:  "123",
			date:    tomorrow,
			seats:   []string{"A1"},
			wantMsg: "Mobile number must be exactly 10 digits.",
		},
		{
			name:    "eleven digit mobile",
			mobile:  "98765432100",
			date:    tomorrow,
			seats:   []string{"A1"},
			wantMsg: "Mobile number must be exactly 10 digits.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestLedger(nil)
			_, err := l.Create(context.Background(), tc.mobile, tc.date, tc.seats)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if verr.Message != tc.wantMsg {
				t.Errorf("message = %q, want %q", verr.Message, tc.wantMsg)
			}
		})
	}
}

func TestTodayIsBookable(t *testing.T) {
	l := newTestLedger(nil)
	mustCreate(t, l, "9876543210", today, "A1")
}

func TestSeatExclusivity(t *testing.T) {
	l := newTestLedger(nil)
	first := mustCreate(t, l, "9876543210", tomorrow, "C3", "C4")

	_, err := l.Create(context.Background(), "1234567890", tomorrow, []string{"C4", "D1"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected seat conflict, got %v", err)
	}
	if !strings.Contains(verr.Message, "C4") || !strings.Contains(verr.Message, first.ID) {
		t.Errorf("conflict message %q should name seat C4 and booking %s", verr.Message, first.ID)
	}

	// The same seat is free on a different date.
	mustCreate(t, l, "1234567890", "2030-06-03", "C4")

	// Ownership map reflects only the date's holder.
	owned := l.SeatOwnership(tomorrow)
	if owned["C3"] != first.ID || owned["C4"] != first.ID {
		t.Errorf("ownership = %v, want C3/C4 -> %s", owned, first.ID)
	}
	if len(owned) != 2 {
		t.Errorf("ownership has %d seats, want 2", len(owned))
	}
}

func TestQuotaBound(t *testing.T) {
	l := newTestLedger(nil)
	mustCreate(t, l, "9876543210", tomorrow, "A1", "A2", "A3", "A4")

	// 4 held + 3 requested exceeds the limit of 6.
	_, err := l.Create(context.Background(), "9876543210", tomorrow, []string{"B1", "B2", "B3"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected quota error, got %v", err)
	}
	if !strings.Contains(verr.Message, "6-seat daily limit") {
		t.Errorf("unexpected quota message %q", verr.Message)
	}

	// 4 + 2 = 6 is allowed, and the quota is per (mobile, date).
	mustCreate(t, l, "9876543210", tomorrow, "B1", "B2")
	mustCreate(t, l, "9876543210", "2030-06-03", "A1", "A2", "A3", "A4")
	mustCreate(t, l, "1234567890", tomorrow, "C1", "C2")

	if got := l.SeatCountForMobile("9876543210", tomorrow, ""); got != 6 {
		t.Errorf("seat count = %d, want 6", got)
	}
}

func TestUpdateSelfExclusion(t *testing.T) {
	l := newTestLedger(nil)
	b := mustCreate(t, l, "9876543210", tomorrow, "C3", "C4")

	// Re-selecting an owned seat while changing the rest must succeed:
	// the booking's own seats are not conflicts against itself.
	later := fixedNow.Add(time.Hour)
	l.now = func() time.Time { return later }
	updated, err := l.Update(context.Background(), b.ID, []string{"C4", "D1"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, want := strings.Join(updated.Seats, ","), "C4,D1"; got != want {
		t.Errorf("seats after update = %s, want %s", got, want)
	}
	if updated.MobileNumber != b.MobileNumber || updated.TravelDate != b.TravelDate {
		t.Error("update must not change mobile number or travel date")
	}
	if !updated.CreatedAt.Equal(fixedNow) {
		t.Error("update must not touch CreatedAt")
	}
	if !updated.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, later)
	}

	// C3 is free again after the edit.
	if _, taken := l.SeatOwnership(tomorrow)["C3"]; taken {
		t.Error("C3 should be free after the edit")
	}

	// The quota check also excludes the booking's prior seats: a full
	// six-seat replacement on the same booking is fine.
	if _, err := l.Update(context.Background(), b.ID, []string{"E1", "E2", "E3", "E4", "F1", "F2"}); err != nil {
		t.Fatalf("six-seat replacement: %v", err)
	}
}

func TestUpdateUnknownBooking(t *testing.T) {
	l := newTestLedger(nil)
	_, err := l.Update(context.Background(), "BK-20300601-MISSING1", []string{"A1"})
	if !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	st := &fakeStore{}
	l := newTestLedger(st)
	b := mustCreate(t, l, "9876543210", tomorrow, "A1")
	keep := mustCreate(t, l, "1234567890", tomorrow, "B1")
	saves := len(st.snapshots)

	l.Delete(context.Background(), b.ID)
	if _, ok := l.BookingByID(b.ID); ok {
		t.Fatal("booking still present after delete")
	}
	if len(st.snapshots) != saves+1 {
		t.Errorf("delete wrote %d snapshots, want 1", len(st.snapshots)-saves)
	}

	// Second delete: no error, no state change, no snapshot write.
	l.Delete(context.Background(), b.ID)
	if len(st.snapshots) != saves+1 {
		t.Error("deleting an unknown id must not write a snapshot")
	}
	if got := l.BookingsForDate(tomorrow); len(got) != 1 || got[0].ID != keep.ID {
		t.Errorf("remaining bookings = %v, want just %s", got, keep.ID)
	}
}

func TestSetBoarded(t *testing.T) {
	l := newTestLedger(nil)
	b := mustCreate(t, l, "9876543210", tomorrow, "A1")

	l.SetBoarded(context.Background(), b.ID, true)
	got, _ := l.BookingByID(b.ID)
	if !got.IsBoarded {
		t.Error("booking should be boarded")
	}

	l.SetBoarded(context.Background(), b.ID, false)
	got, _ = l.BookingByID(b.ID)
	if got.IsBoarded {
		t.Error("boarding flag should be cleared")
	}

	// Unknown id is a silent no-op.
	l.SetBoarded(context.Background(), "BK-20300601-MISSING1", true)
}

func TestBookingsForDate(t *testing.T) {
	l := newTestLedger(nil)
	if got := l.BookingsForDate(tomorrow); got == nil || len(got) != 0 {
		t.Fatalf("empty date should yield empty slice, got %v", got)
	}
	a := mustCreate(t, l, "9876543210", tomorrow, "A1")
	b := mustCreate(t, l, "1234567890", tomorrow, "B1")
	mustCreate(t, l, "5554443322", "2030-06-03", "A1")

	got := l.BookingsForDate(tomorrow)
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != b.ID {
		t.Errorf("bookings for date = %v, want [%s %s] in storage order", got, a.ID, b.ID)
	}

	// Returned snapshots must not alias ledger state.
	got[0].Seats[0] = "O4"
	fresh, _ := l.BookingByID(a.ID)
	if fresh.Seats[0] != "A1" {
		t.Error("mutating a returned booking leaked into the ledger")
	}
}

func TestPersistenceFailureKeepsMutation(t *testing.T) {
	st := &fakeStore{failSave: errors.New("redis down")}
	l := newTestLedger(st)

	b, err := l.Create(context.Background(), "9876543210", tomorrow, []string{"A1"})
	if err != nil {
		t.Fatalf("Create must succeed even when the snapshot write fails: %v", err)
	}
	if _, ok := l.BookingByID(b.ID); !ok {
		t.Fatal("in-memory mutation was rolled back")
	}
	if l.LastSaveErr() == nil {
		t.Error("LastSaveErr should report the failed write")
	}

	// Once the store recovers, the next mutation clears the flag.
	st.failSave = nil
	l.SetBoarded(context.Background(), b.ID, true)
	if l.LastSaveErr() != nil {
		t.Error("LastSaveErr should clear after a successful write")
	}
	if len(st.snapshots) != 1 {
		t.Fatalf("store received %d snapshots, want 1", len(st.snapshots))
	}
	if snap := st.snapshots[0]; len(snap) != 1 || !snap[0].IsBoarded {
		t.Errorf("snapshot = %+v, want the boarded booking", snap)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	l := newTestLedger(nil)
	var events []Event
	l.Subscribe(func(ev Event) { events = append(events, ev) })

	b := mustCreate(t, l, "9876543210", tomorrow, "A1")
	if _, err := l.Update(context.Background(), b.ID, []string{"A2"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	l.SetBoarded(context.Background(), b.ID, true)
	l.Delete(context.Background(), b.ID)
	l.Delete(context.Background(), b.ID) // no-op, no event

	want := []string{ActionCreated, ActionUpdated, ActionBoarded, ActionDeleted}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, action := range want {
		if events[i].Action != action {
			t.Errorf("event %d action = %s, want %s", i, events[i].Action, action)
		}
		if events[i].Booking.ID != b.ID {
			t.Errorf("event %d booking = %s, want %s", i, events[i].Booking.ID, b.ID)
		}
	}
	// The deletion event carries the state just before removal.
	if !events[3].Booking.IsBoarded {
		t.Error("delete event should snapshot the booking before removal")
	}
}

func TestHydrate(t *testing.T) {
	st := &fakeStore{loaded: []model.Booking{
		{ID: "BK-20300601-AAAAAAAA", TravelDate: tomorrow, MobileNumber: "9876543210", Seats: []string{"C4", "C3"}},
		{ID: "BK-20300601-BBBBBBBB", TravelDate: tomorrow, MobileNumber: "1234567890", Seats: []string{"A1"}, IsBoarded: true},
	}}
	l := newTestLedger(st)
	if err := l.Hydrate(context.Background()); err != nil {
		t.Fatalf("Hydrate: %v", err)
	}

	got := l.BookingsForDate(tomorrow)
	if len(got) != 2 {
		t.Fatalf("hydrated %d bookings, want 2", len(got))
	}
	// Seats are re-sorted on load in case the snapshot predates the
	// sorting rule.
	if strings.Join(got[0].Seats, ",") != "C3,C4" {
		t.Errorf("hydrated seats = %v, want sorted C3,C4", got[0].Seats)
	}
	if owned := l.SeatOwnership(tomorrow); owned["A1"] != "BK-20300601-BBBBBBBB" {
		t.Errorf("ownership after hydrate = %v", owned)
	}
}
