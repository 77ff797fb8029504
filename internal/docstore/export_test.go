package docstore

import "time"

// SetNow overrides the store clock for tests.
func (s *DocStore) SetNow(now func() time.Time) {
	s.now = now
}
