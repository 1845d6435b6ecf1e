// Package resource keeps a fetched collection (plus the open detail record) in
// step with the server across query changes and optimistic mutations.
//
// A Store is not safe for concurrent use; in the TUI it is only touched from
// Update, with network results delivered back as messages.
package resource

import (
	"slices"
	"strings"

	"github.com/Saurabhh-37/supportsync/internal/api"
)

type Record interface {
	RecordID() int
}

const fallbackMessage = "Something went wrong. Please try again."

type Store[T Record] struct {
	Items   []T
	Query   api.ListQuery
	Loading bool
	Err     string

	// Current is the record shown in a detail view, if any.
	Current       *T
	DetailLoading bool

	fetchSeq  uint64
	detailSeq uint64
	// server holds the last value the server confirmed for each record.
	server map[int]T
	recSeq map[int]uint64
}

func New[T Record](limit int) *Store[T] {
	return &Store[T]{
		Query:  api.ListQuery{Limit: limit},
		server: map[int]T{},
		recSeq: map[int]uint64{},
	}
}

func (s *Store[T]) setQuery(q api.ListQuery) bool {
	if q == s.Query {
		return false
	}
	s.Query = q
	return true
}

// SetStatus changes the status filter and returns to the first page. It reports
// whether the query changed, in which case the caller issues one fetch.
func (s *Store[T]) SetStatus(v string) bool {
	q := s.Query
	q.Status = strings.TrimSpace(v)
	if q.Status != s.Query.Status {
		q.Skip = 0
	}
	return s.setQuery(q)
}

func (s *Store[T]) SetPriority(v string) bool {
	q := s.Query
	q.Priority = strings.TrimSpace(v)
	if q.Priority != s.Query.Priority {
		q.Skip = 0
	}
	return s.setQuery(q)
}

func (s *Store[T]) SetSearch(v string) bool {
	q := s.Query
	q.Search = strings.TrimSpace(v)
	if q.Search != s.Query.Search {
		q.Skip = 0
	}
	return s.setQuery(q)
}

func (s *Store[T]) SetAssignedTo(id int) bool {
	q := s.Query
	q.AssignedTo = max(id, 0)
	if q.AssignedTo != s.Query.AssignedTo {
		q.Skip = 0
	}
	return s.setQuery(q)
}

func (s *Store[T]) SetPage(skip int) bool {
	q := s.Query
	q.Skip = max(skip, 0)
	return s.setQuery(q)
}

func (s *Store[T]) SetLimit(n int) bool {
	if n <= 0 {
		return false
	}
	q := s.Query
	q.Limit = n
	return s.setQuery(q)
}

// NextPage advances by one page unless the current page came back short.
func (s *Store[T]) NextPage() bool {
	if s.Query.Limit <= 0 || len(s.Items) < s.Query.Limit {
		return false
	}
	return s.SetPage(s.Query.Skip + s.Query.Limit)
}

func (s *Store[T]) PrevPage() bool {
	return s.SetPage(s.Query.Skip - max(s.Query.Limit, 1))
}

// Page is the 1-based page number of the current query.
func (s *Store[T]) Page() int {
	if s.Query.Limit <= 0 {
		return 1
	}
	return s.Query.Skip/s.Query.Limit + 1
}

// BeginFetch marks a list fetch in flight and returns its sequence number.
// Starting a new fetch supersedes any earlier one.
func (s *Store[T]) BeginFetch() uint64 {
	s.fetchSeq++
	s.Loading = true
	s.Err = ""
	return s.fetchSeq
}

// FinishFetch applies a list response if seq is still the latest fetch,
// replacing the whole collection. Stale responses are dropped.
func (s *Store[T]) FinishFetch(seq uint64, items []T, err error) bool {
	if seq != s.fetchSeq {
		return false
	}
	s.Loading = false
	if err != nil {
		s.Err = api.Message(err, fallbackMessage)
		return true
	}
	s.Items = slices.Clone(items)
	if s.Items == nil {
		s.Items = []T{}
	}
	for _, it := range s.Items {
		s.server[it.RecordID()] = it
	}
	return true
}

// BeginDetail marks a detail fetch in flight.
func (s *Store[T]) BeginDetail() uint64 {
	s.detailSeq++
	s.DetailLoading = true
	s.Err = ""
	return s.detailSeq
}

func (s *Store[T]) FinishDetail(seq uint64, rec T, err error) bool {
	if seq != s.detailSeq {
		return false
	}
	s.DetailLoading = false
	if err != nil {
		s.Err = api.Message(err, fallbackMessage)
		return true
	}
	s.server[rec.RecordID()] = rec
	s.Current = &rec
	s.replaceItem(rec)
	return true
}

// CloseDetail forgets the detail record and drops any in-flight detail fetch.
func (s *Store[T]) CloseDetail() {
	s.detailSeq++
	s.DetailLoading = false
	s.Current = nil
}

// SetErr records a display message for err, or clears it when err is nil.
func (s *Store[T]) SetErr(err error) {
	if err == nil {
		s.Err = ""
		return
	}
	s.Err = api.Message(err, fallbackMessage)
}

func (s *Store[T]) Find(id int) (T, bool) {
	if s.Current != nil && (*s.Current).RecordID() == id {
		return *s.Current, true
	}
	for _, it := range s.Items {
		if it.RecordID() == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func (s *Store[T]) replaceItem(rec T) bool {
	for i := range s.Items {
		if s.Items[i].RecordID() == rec.RecordID() {
			s.Items[i] = rec
			return true
		}
	}
	return false
}

// set writes rec into every place the record is shown.
func (s *Store[T]) set(rec T) {
	s.replaceItem(rec)
	if s.Current != nil && (*s.Current).RecordID() == rec.RecordID() {
		r := rec
		s.Current = &r
	}
}

// Upsert records a server-confirmed record, e.g. after create. New records are
// prepended to the collection.
func (s *Store[T]) Upsert(rec T) {
	s.server[rec.RecordID()] = rec
	if !s.replaceItem(rec) {
		s.Items = append([]T{rec}, s.Items...)
	}
	if s.Current != nil && (*s.Current).RecordID() == rec.RecordID() {
		r := rec
		s.Current = &r
	}
}

// Remove drops the record from the collection and the detail slot.
func (s *Store[T]) Remove(id int) bool {
	found := false
	s.Items = slices.DeleteFunc(s.Items, func(it T) bool {
		if it.RecordID() == id {
			found = true
			return true
		}
		return false
	})
	if s.Current != nil && (*s.Current).RecordID() == id {
		s.Current = nil
		found = true
	}
	delete(s.server, id)
	delete(s.recSeq, id)
	return found
}
