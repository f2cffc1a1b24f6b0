package auth

import "time"

// SetClock overrides the time source of s.
func (s *JWTService) SetClock(now func() time.Time) {
	s.now = now
}
