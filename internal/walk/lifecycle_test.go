package walk

import (
	"errors"
	"testing"
	"time"
)

func TestNewSessionRecordsInitialTransition(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})

	if s.ID() == "" {
		t.Fatalf("expected generated id")
	}
	if s.Status() != StatusScheduled {
		t.Fatalf("unexpected status %s", s.Status())
	}
	history := s.History()
	if len(history) != 1 || history[0].From != StatusUnknown || history[0].To != StatusScheduled {
		t.Fatalf("unexpected initial history: %+v", history)
	}
}

func TestNewSessionPanicsOnInvalidAggregate(t *testing.T) {
	cases := map[string]Params{
		"negative price": {OwnerID: "o", WalkerID: "w", Price: -1},
		"no owner":       {WalkerID: "w", Price: 1},
		"no walker":      {OwnerID: "o", Price: 1},
	}
	for name, p := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("%s: expected panic", name)
				}
			}()
			New(p, Options{})
		}()
	}
}

func TestStartGuards(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})

	if _, err := s.Start(false); !errors.Is(err, ErrWalkerNotVerified) {
		t.Fatalf("expected not verified, got %v", err)
	}
	if s.Status() != StatusScheduled {
		t.Fatalf("status must stay scheduled")
	}
	if _, ok := s.ActualStart(); ok {
		t.Fatalf("actual start must stay unset")
	}

	tr, err := s.Start(true)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if tr.From != StatusScheduled || tr.To != StatusInProgress {
		t.Fatalf("unexpected transition %+v", tr)
	}
	if at, ok := s.ActualStart(); !ok || !at.Equal(clock.Now()) {
		t.Fatalf("expected actual start at now")
	}

	if _, err := s.Start(true); !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("expected already in progress, got %v", err)
	}
	if len(s.History()) != 2 {
		t.Fatalf("failed start must not be logged")
	}
}

func TestCancelIsNoopWhenTerminal(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})

	tr, ok := s.Cancel("owner unavailable")
	if !ok || tr.To != StatusCancelled || tr.Reason != "owner unavailable" {
		t.Fatalf("unexpected cancel result %+v %v", tr, ok)
	}
	if s.CancelReason() != "owner unavailable" {
		t.Fatalf("expected cancel reason")
	}
	if _, ok := s.EndTime(); !ok {
		t.Fatalf("expected end time")
	}

	if _, ok := s.Cancel("again"); ok {
		t.Fatalf("second cancel must be a no-op")
	}
	if _, ok := s.Complete(Completion{}); ok {
		t.Fatalf("complete after cancel must be a no-op")
	}
	if s.Status() != StatusCancelled || len(s.History()) != 2 {
		t.Fatalf("terminal state must not change: %s, %d entries", s.Status(), len(s.History()))
	}
}

func TestCompleteRecordsDurationAndRating(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	if _, err := s.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(30 * time.Minute)

	rating := 4.5
	if _, ok := s.Complete(Completion{Rating: &rating, Notes: "good boy"}); !ok {
		t.Fatalf("expected completion")
	}
	rating = 1
	if got, ok := s.Rating(); !ok || got != 4.5 {
		t.Fatalf("unexpected rating %v %v", got, ok)
	}
	if s.Duration() != 30*time.Minute {
		t.Fatalf("unexpected duration %v", s.Duration())
	}
	if s.Notes() != "good boy" {
		t.Fatalf("unexpected notes")
	}
	if _, ok := s.Cancel("late"); ok {
		t.Fatalf("cancel after complete must be a no-op")
	}
}

func TestCompleteIgnoresNegativeRatingAndMissingStart(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	clock.Advance(time.Minute)

	rating := -1.0
	if _, ok := s.Complete(Completion{Rating: &rating}); !ok {
		t.Fatalf("complete from scheduled is allowed")
	}
	if _, ok := s.Rating(); ok {
		t.Fatalf("negative rating must not be stored")
	}
	if s.Duration() != 0 {
		t.Fatalf("duration must stay zero without a start")
	}
}

func TestTriggerEmergencyIsStickyAndLogged(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})
	if _, err := s.Start(true); err != nil {
		t.Fatalf("start: %v", err)
	}

	tr := s.TriggerEmergency("dog injured")
	if tr.Kind != KindEmergency || tr.From != StatusInProgress || tr.To != StatusInProgress {
		t.Fatalf("unexpected emergency entry %+v", tr)
	}
	if !s.Emergency() || s.Status() != StatusInProgress {
		t.Fatalf("emergency must not change status")
	}

	s.Complete(Completion{})
	s.TriggerEmergency("")
	if !s.Emergency() {
		t.Fatalf("emergency flag is sticky")
	}
	if len(s.History()) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(s.History()))
	}
}

func TestHistoryEntriesNeverChange(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(t, clock, Options{})

	recorded := 1
	before := s.History()
	step := func(changed bool) {
		if changed {
			recorded++
		}
		clock.Advance(time.Second)
		after := s.History()
		if len(after) != recorded {
			t.Fatalf("expected %d entries, got %d", recorded, len(after))
		}
		for i := range before {
			if after[i] != before[i] {
				t.Fatalf("entry %d changed: %+v -> %+v", i, before[i], after[i])
			}
		}
		before = after
	}

	_, err := s.Start(false)
	step(err == nil)
	_, err = s.Start(true)
	step(err == nil)
	s.TriggerEmergency("lost leash")
	step(true)
	_, err = s.Start(true)
	step(err == nil)
	_, ok := s.Complete(Completion{})
	step(ok)
	_, ok = s.Cancel("")
	step(ok)
	s.TriggerEmergency("after the fact")
	step(true)

	// Mutating the returned copy must not leak into the session.
	before[0].Reason = "tampered"
	if s.History()[0].Reason == "tampered" {
		t.Fatalf("history must be returned as a copy")
	}
}
