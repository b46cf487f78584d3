package memory

import "strconv"

// Sequence issues identifiers "1", "2", "3", ... An id is never handed
// out twice, even after the record holding it is deleted.
//
// Sequence is not safe for concurrent use on its own; the Store calls
// Next while holding its lock.
type Sequence struct {
	n uint64
}

// Next returns the next identifier.
func (s *Sequence) Next() string {
	s.n++
	return strconv.FormatUint(s.n, 10)
}
