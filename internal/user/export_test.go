package user

import "time"

// SetClock replaces the clock used to stamp creation and modification times.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}
