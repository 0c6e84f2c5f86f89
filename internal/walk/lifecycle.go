package walk

import "time"

// Start moves a scheduled walk to in progress. The verification flag comes
// from the identity collaborator; it is checked before the status.
func (s *Session) Start(walkerVerified bool) (StatusTransition, error) {
	if !walkerVerified {
		return StatusTransition{}, ErrWalkerNotVerified
	}

	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.status != StatusScheduled {
		return StatusTransition{}, ErrAlreadyInProgress
	}
	now := s.opts.Now()
	s.actualStart = now
	return s.transitionLocked(StatusInProgress, now, ""), nil
}

// Cancel ends the walk. It reports false, recording nothing, when the walk
// already reached a terminal status.
func (s *Session) Cancel(reason string) (StatusTransition, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.status.Terminal() {
		return StatusTransition{}, false
	}
	now := s.opts.Now()
	s.endTime = now
	s.cancelReason = reason
	s.finishDurationLocked()
	return s.transitionLocked(StatusCancelled, now, reason), true
}

// Completion carries the optional owner feedback recorded with Complete.
type Completion struct {
	// Rating is stored only when set and not negative.
	Rating *float64
	Notes  string
}

// Complete ends the walk successfully. Completed and cancelled are mutually
// exclusive: on a terminal session it records nothing and reports false.
func (s *Session) Complete(c Completion) (StatusTransition, bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	if s.status.Terminal() {
		return StatusTransition{}, false
	}
	now := s.opts.Now()
	s.endTime = now
	s.finishDurationLocked()
	if c.Rating != nil && *c.Rating >= 0 {
		r := *c.Rating
		s.rating = &r
	}
	s.notes = c.Notes
	return s.transitionLocked(StatusCompleted, now, c.Notes), true
}

// TriggerEmergency raises the sticky emergency flag and marks the log without
// changing status. It is accepted in every status.
func (s *Session) TriggerEmergency(reason string) StatusTransition {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	s.emergency = true
	entry := StatusTransition{
		From:   s.status,
		To:     s.status,
		At:     s.opts.Now(),
		Reason: reason,
		Kind:   KindEmergency,
	}
	s.transitions = append(s.transitions, entry)
	return entry
}

func (s *Session) transitionLocked(to Status, at time.Time, reason string) StatusTransition {
	entry := StatusTransition{
		From:   s.status,
		To:     to,
		At:     at,
		Reason: reason,
		Kind:   KindStatusChange,
	}
	s.status = to
	s.transitions = append(s.transitions, entry)
	return entry
}

func (s *Session) finishDurationLocked() {
	if s.actualStart.IsZero() {
		return
	}
	if d := s.endTime.Sub(s.actualStart); d > 0 {
		s.duration = d
	}
}

func (s *Session) closed() bool {
	if s.opts.AllowAppendAfterTerminal {
		return false
	}
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.status.Terminal()
}
