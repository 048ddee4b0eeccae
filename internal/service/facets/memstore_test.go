package facets

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/constants"
	"github.com/ougirez/boptest/internal/pkg/store"
)

// memFacetStore mimics the postgres facet table: one aggregate per building
// type, a row lock held from insert/lock until the transaction ends, and
// rollback of everything a failed transaction wrote.
type memFacetStore struct {
	mu    sync.Mutex
	rows  map[string]*domain.Document[domain.ResultFacet]
	locks map[string]*sync.Mutex
	seq   int64

	// vanishOnLock makes the next N LockFacet calls act as if the row had
	// been deleted concurrently.
	vanishOnLock int
	calls        []string
}

func newMemFacetStore() *memFacetStore {
	return &memFacetStore{
		rows:  make(map[string]*domain.Document[domain.ResultFacet]),
		locks: make(map[string]*sync.Mutex),
	}
}

func (m *memFacetStore) rowLock(uid string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[uid]
	if !ok {
		l = &sync.Mutex{}
		m.locks[uid] = l
	}
	return l
}

func (m *memFacetStore) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

type memFacetTx struct {
	store  *memFacetStore
	held   map[string]bool
	undo   map[string]*domain.Document[domain.ResultFacet]
	undone map[string]bool
}

func (m *memFacetStore) InFacetTx(ctx context.Context, fn func(tx store.FacetTx) error) error {
	tx := &memFacetTx{
		store:  m,
		held:   make(map[string]bool),
		undo:   make(map[string]*domain.Document[domain.ResultFacet]),
		undone: make(map[string]bool),
	}
	err := fn(tx)

	m.mu.Lock()
	if err != nil {
		for uid := range tx.undone {
			if prev := tx.undo[uid]; prev != nil {
				m.rows[uid] = prev
			} else {
				delete(m.rows, uid)
			}
		}
	}
	m.mu.Unlock()

	for uid := range tx.held {
		m.rowLock(uid).Unlock()
	}
	return err
}

func (tx *memFacetTx) lock(uid string) {
	if tx.held[uid] {
		return
	}
	tx.store.rowLock(uid).Lock()
	tx.held[uid] = true
}

func (tx *memFacetTx) remember(uid string) {
	if tx.undone[uid] {
		return
	}
	tx.undone[uid] = true
	if prev, ok := tx.store.rows[uid]; ok {
		cp := *prev
		tx.undo[uid] = &cp
	}
}

func copyDoc(doc *domain.Document[domain.ResultFacet]) *domain.Document[domain.ResultFacet] {
	cp := *doc
	cp.Data = *domain.NewResultFacet(domain.FacetInput{
		BuildingTypeUID:  doc.Data.BuildingTypeUID,
		BuildingTypeName: doc.Data.BuildingTypeName,
		Scenario:         doc.Data.Scenario,
		Tags:             doc.Data.Tags,
		Versions:         doc.Data.Versions,
	})
	return &cp
}

func (tx *memFacetTx) InsertFacet(_ context.Context, facet *domain.ResultFacet) (*domain.Document[domain.ResultFacet], bool, error) {
	uid := facet.BuildingTypeUID
	tx.store.record("insert")

	tx.store.mu.Lock()
	_, exists := tx.store.rows[uid]
	tx.store.mu.Unlock()
	if exists {
		return nil, false, nil
	}

	// a concurrent inserter holds the lock until it commits
	tx.lock(uid)

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if _, ok := tx.store.rows[uid]; ok {
		return nil, false, nil
	}
	tx.remember(uid)
	tx.store.seq++
	now := time.Now()
	doc := &domain.Document[domain.ResultFacet]{
		DocID:      "doc-" + strconv.FormatInt(tx.store.seq, 10),
		NumericID:  tx.store.seq,
		Collection: domain.CollectionResultFacets,
		Data:       *facet,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	tx.store.rows[uid] = doc
	return copyDoc(doc), true, nil
}

func (tx *memFacetTx) LockFacet(_ context.Context, uid string) (*domain.Document[domain.ResultFacet], error) {
	tx.store.record("lock")
	tx.lock(uid)

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	if tx.store.vanishOnLock > 0 {
		tx.store.vanishOnLock--
		return nil, constants.ErrDBNotFound
	}
	doc, ok := tx.store.rows[uid]
	if !ok {
		return nil, constants.ErrDBNotFound
	}
	return copyDoc(doc), nil
}

func (tx *memFacetTx) ReplaceFacet(_ context.Context, docID string, facet *domain.ResultFacet) (*domain.Document[domain.ResultFacet], error) {
	tx.store.record("replace")

	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	for uid, doc := range tx.store.rows {
		if doc.DocID != docID {
			continue
		}
		tx.remember(uid)
		next := *doc
		next.Data = *facet
		next.UpdatedAt = time.Now()
		tx.store.rows[uid] = &next
		return copyDoc(&next), nil
	}
	return nil, constants.ErrDBNotFound
}

func (m *memFacetStore) ListFacets(context.Context) ([]*domain.ResultFacet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.ResultFacet, 0, len(m.rows))
	for _, doc := range m.rows {
		out = append(out, &copyDoc(doc).Data)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BuildingTypeUID < out[j].BuildingTypeUID })
	return out, nil
}

func (m *memFacetStore) GetFacet(_ context.Context, uid string) (*domain.ResultFacet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.rows[uid]
	if !ok {
		return nil, constants.ErrDBNotFound
	}
	return &copyDoc(doc).Data, nil
}
