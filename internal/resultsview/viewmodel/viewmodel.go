// Package viewmodel holds the state of a results table: the loaded results,
// the active filter and the fetch lifecycle around them.
package viewmodel

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/resultsview"
)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	}
	return "unknown"
}

// ErrSuperseded is returned by a fetch whose response arrived after a newer
// fetch was started. Its response is discarded.
var ErrSuperseded = errors.New("fetch superseded by a newer request")

// Fetcher is the results endpoint the view reads from.
type Fetcher interface {
	FetchResults(ctx context.Context, filter domain.ResultFilter, cursor *int64, limit int) (*domain.ResultsPage, error)
	SetShared(ctx context.Context, id int64, share bool) (*domain.Result, error)
}

type request struct {
	filter domain.ResultFilter
	cursor *int64
	append bool
	reset  bool
}

type shareOverlay struct {
	share bool
	token uint64
}

// Snapshot is a consistent copy of the view state.
type Snapshot struct {
	State      State
	Results    []*domain.Result
	Rows       []resultsview.Data
	Filter     domain.ResultFilter
	HasNext    bool
	NextCursor *int64
	Err        error
}

type ViewModel struct {
	fetcher  Fetcher
	pageSize int

	mu         sync.Mutex
	state      State
	results    []*domain.Result
	filter     domain.ResultFilter
	hasNext    bool
	nextCursor *int64
	err        error

	seq    uint64
	cancel context.CancelFunc
	last   request

	overlay    map[int64]shareOverlay
	shareToken uint64
}

func New(fetcher Fetcher, pageSize int) *ViewModel {
	return &ViewModel{
		fetcher:  fetcher,
		pageSize: pageSize,
		overlay:  make(map[int64]shareOverlay),
	}
}

// Apply replaces the active filter and loads its first page.
func (vm *ViewModel) Apply(ctx context.Context, filter domain.ResultFilter) error {
	return vm.fetch(ctx, request{filter: filter})
}

// Refresh reloads the first page of the active filter.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	vm.mu.Lock()
	filter := vm.filter
	vm.mu.Unlock()
	return vm.fetch(ctx, request{filter: filter})
}

// Reset clears the filter. Unlike other fetches a failed reset does not keep
// the previous rows.
func (vm *ViewModel) Reset(ctx context.Context) error {
	return vm.fetch(ctx, request{reset: true})
}

// LoadMore appends the next page. It is a no-op on the last page and while a
// first page is loading.
func (vm *ViewModel) LoadMore(ctx context.Context) error {
	vm.mu.Lock()
	if !vm.hasNext || vm.nextCursor == nil || (vm.state == StateLoading && !vm.last.append) {
		vm.mu.Unlock()
		return nil
	}
	req := request{filter: vm.filter, cursor: vm.nextCursor, append: true}
	vm.mu.Unlock()
	return vm.fetch(ctx, req)
}

// Retry repeats the last request, whatever kind it was.
func (vm *ViewModel) Retry(ctx context.Context) error {
	vm.mu.Lock()
	req := vm.last
	vm.mu.Unlock()
	return vm.fetch(ctx, req)
}

// fetch cancels whatever fetch is in flight and runs req. Only the latest
// request may change the view.
func (vm *ViewModel) fetch(ctx context.Context, req request) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	vm.mu.Lock()
	vm.seq++
	seq := vm.seq
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.cancel = cancel
	vm.last = req
	vm.filter = req.filter
	vm.state = StateLoading
	if !req.append {
		// the cursor belongs to the previous result set
		vm.hasNext = false
		vm.nextCursor = nil
	}
	vm.mu.Unlock()

	page, err := vm.fetcher.FetchResults(ctx, req.filter, req.cursor, vm.pageSize)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if seq != vm.seq {
		return ErrSuperseded
	}
	vm.cancel = nil

	if err != nil {
		vm.state = StateError
		vm.err = err
		if req.reset {
			vm.results = nil
			vm.hasNext = false
			vm.nextCursor = nil
		}
		return err
	}

	if req.append {
		vm.results = mergeResults(vm.results, page.Results)
	} else {
		vm.results = page.Results
	}
	vm.hasNext = page.PageInfo.HasNext
	vm.nextCursor = page.PageInfo.NextCursor
	vm.state = StateReady
	vm.err = nil
	return nil
}

// mergeResults adds incoming to current, replacing results with the same uid,
// newest run first.
func mergeResults(current, incoming []*domain.Result) []*domain.Result {
	index := make(map[string]int, len(current)+len(incoming))
	merged := make([]*domain.Result, 0, len(current)+len(incoming))
	for _, list := range [][]*domain.Result{current, incoming} {
		for _, r := range list {
			if i, ok := index[r.UID]; ok {
				merged[i] = r
				continue
			}
			index[r.UID] = len(merged)
			merged = append(merged, r)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].DateRun.After(merged[j].DateRun)
	})
	return merged
}

// ToggleShare shows the new share flag at once and asks the server to apply
// it. The local flag is dropped when the server answers: on success the
// server's result replaces the loaded one, on failure the old flag shows again.
func (vm *ViewModel) ToggleShare(ctx context.Context, id int64, share bool) error {
	vm.mu.Lock()
	vm.shareToken++
	token := vm.shareToken
	vm.overlay[id] = shareOverlay{share: share, token: token}
	vm.mu.Unlock()

	updated, err := vm.fetcher.SetShared(ctx, id, share)

	vm.mu.Lock()
	defer vm.mu.Unlock()
	if o, ok := vm.overlay[id]; ok && o.token == token {
		delete(vm.overlay, id)
	}
	if err != nil {
		return err
	}

	for i, r := range vm.results {
		if r.ID == id {
			results := make([]*domain.Result, len(vm.results))
			copy(results, vm.results)
			results[i] = updated
			vm.results = results
			break
		}
	}
	return nil
}

func (vm *ViewModel) Snapshot() Snapshot {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	results := make([]*domain.Result, len(vm.results))
	for i, r := range vm.results {
		if o, ok := vm.overlay[r.ID]; ok && o.share != r.IsShared {
			cp := *r
			cp.IsShared = o.share
			r = &cp
		}
		results[i] = r
	}

	return Snapshot{
		State:      vm.state,
		Results:    results,
		Rows:       resultsview.CreateRows(results),
		Filter:     vm.filter,
		HasNext:    vm.hasNext,
		NextCursor: vm.nextCursor,
		Err:        vm.err,
	}
}
