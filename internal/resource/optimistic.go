package resource

// Pending is an optimistic mutation awaiting the server's answer.
type Pending struct {
	ID  int
	seq uint64
}

// Apply mutates the local copy of record id immediately. The returned Pending
// must be passed to Confirm or Fail once the server answers. ok is false when
// the record is not loaded.
func (s *Store[T]) Apply(id int, fn func(*T)) (p Pending, ok bool) {
	cur, ok := s.Find(id)
	if !ok {
		return Pending{}, false
	}
	if _, known := s.server[id]; !known {
		s.server[id] = cur
	}
	next := cur
	fn(&next)
	s.set(next)
	s.recSeq[id]++
	return Pending{ID: id, seq: s.recSeq[id]}, true
}

func (s *Store[T]) latest(p Pending) bool {
	return s.recSeq[p.ID] == p.seq
}

// Confirm stores the server's canonical record. It is shown only if p is the
// latest mutation of that record; an older answer only updates the revert point.
func (s *Store[T]) Confirm(p Pending, server T) bool {
	if _, tracked := s.recSeq[p.ID]; !tracked {
		// Removed while in flight.
		return false
	}
	s.server[p.ID] = server
	if !s.latest(p) {
		return false
	}
	s.set(server)
	return true
}

// Fail reverts record p.ID to its last server-confirmed value and records the
// error, unless a newer mutation has superseded p.
func (s *Store[T]) Fail(p Pending, err error) bool {
	if _, tracked := s.recSeq[p.ID]; !tracked || !s.latest(p) {
		return false
	}
	if prev, ok := s.server[p.ID]; ok {
		s.set(prev)
	}
	s.SetErr(err)
	return true
}
