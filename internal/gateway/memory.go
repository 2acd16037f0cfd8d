package gateway

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/connectord/internal/core/domain"
)

type record struct {
	doc     domain.RawDoc
	version int
}

// Memory is a goroutine-safe, in-process domain.IndexGateway. It is the
// default for unit tests and for a single-binary deployment with no
// external cluster.
type Memory struct {
	mu      sync.Mutex
	indices map[string]map[string]*record
}

// NewMemory returns an empty Memory gateway.
func NewMemory() *Memory {
	return &Memory{indices: make(map[string]map[string]*record)}
}

func (m *Memory) bucket(index string) map[string]*record {
	b, ok := m.indices[index]
	if !ok {
		b = make(map[string]*record)
		m.indices[index] = b
	}
	return b
}

// Get returns a deep copy of the stored document so callers can never
// mutate gateway state by aliasing.
func (m *Memory) Get(ctx context.Context, index, id string) (domain.RawDoc, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.bucket(index)[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneDoc(rec.doc), nil
}

// Update merges patch into the stored document once. Every update holds the
// gateway lock for its duration, so conflicts never occur and
// retryOnConflict is accepted for interface parity but not used.
func (m *Memory) Update(ctx context.Context, index, id string, patch domain.RawDoc, retryOnConflict int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.bucket(index)[id]
	if !ok {
		return domain.ErrNotFound
	}
	merge(rec.doc, patch)
	rec.version++
	return nil
}

// Index creates doc under a generated id and returns it.
func (m *Memory) Index(ctx context.Context, index string, doc domain.RawDoc) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.bucket(index)[id] = &record{doc: cloneDoc(doc), version: 1}
	return id, nil
}

// Query returns a snapshot stream: every matching (id, doc) pair is copied
// at call time, so later writes never race with an in-flight iteration.
func (m *Memory) Query(ctx context.Context, index string, filter domain.QueryFilter) (domain.DocStream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type entry struct {
		id  string
		doc domain.RawDoc
	}
	var entries []entry
	for id, rec := range m.bucket(index) {
		if filter.Predicate != nil && !filter.Predicate(id, rec.doc) {
			continue
		}
		entries = append(entries, entry{id, cloneDoc(rec.doc)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].id < entries[j].id })

	stream := &memoryStream{}
	for _, e := range entries {
		stream.ids = append(stream.ids, e.id)
		stream.docs = append(stream.docs, e.doc)
	}
	return stream, nil
}

// DeleteByQuery deletes every matching document and returns the count.
func (m *Memory) DeleteByQuery(ctx context.Context, index string, filter domain.QueryFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bucket(index)
	n := 0
	for id, rec := range b {
		if filter.Predicate != nil && !filter.Predicate(id, rec.doc) {
			continue
		}
		delete(b, id)
		n++
	}
	return n, nil
}

// Refresh is a no-op: writes are visible to readers immediately.
func (m *Memory) Refresh(ctx context.Context, index string) error { return nil }

// Count returns the number of documents in index.
func (m *Memory) Count(ctx context.Context, index string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bucket(index)), nil
}

type memoryStream struct {
	ids  []string
	docs []domain.RawDoc
	pos  int
}

func (s *memoryStream) Next(ctx context.Context) bool {
	if s.pos >= len(s.ids) {
		return false
	}
	s.pos++
	return true
}

func (s *memoryStream) Doc() (string, domain.RawDoc) {
	i := s.pos - 1
	return s.ids[i], s.docs[i]
}

func (s *memoryStream) Err() error  { return nil }
func (s *memoryStream) Close() error { return nil }

func cloneDoc(doc domain.RawDoc) domain.RawDoc {
	b, err := json.Marshal(doc)
	if err != nil {
		return domain.RawDoc{}
	}
	var out domain.RawDoc
	if err := json.Unmarshal(b, &out); err != nil {
		return domain.RawDoc{}
	}
	return out
}

func merge(dst, patch domain.RawDoc) {
	for k, v := range patch {
		if nested, ok := v.(domain.RawDoc); ok {
			v = map[string]any(nested)
		}
		if nested, ok := v.(map[string]any); ok {
			existing, isMap := dst[k].(map[string]any)
			if rd, isRD := dst[k].(domain.RawDoc); isRD {
				existing, isMap = rd, true
			}
			if isMap {
				merge(existing, nested)
				continue
			}
		}
		dst[k] = v
	}
}
