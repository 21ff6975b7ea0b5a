package network

import "sync"

// BatchContext records the level-1 roads created during one import run, so
// rows that share a corridor name share its level-1 road. The importer
// creates one per run.
type BatchContext struct {
	ID string

	mu     sync.Mutex
	level1 map[string]int64
}

func NewBatchContext(id string) *BatchContext {
	return &BatchContext{ID: id, level1: make(map[string]int64)}
}

// Reset forgets every recorded level-1 road.
func (b *BatchContext) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.level1 = make(map[string]int64)
}

// Level1 returns the level-1 id recorded for name.
func (b *BatchContext) Level1(name string) (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.level1[name]
	return id, ok
}

// ResolveLevel1 returns the id recorded for name, or calls create and records
// its result. The lock is held across create so concurrent callers for the
// same name never create twice. Failed creations are not recorded.
func (b *BatchContext) ResolveLevel1(name string, create func() (int64, error)) (id int64, reused bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if id, ok := b.level1[name]; ok {
		return id, true, nil
	}
	id, err = create()
	if err != nil {
		return 0, false, err
	}
	b.level1[name] = id
	return id, false, nil
}

func (b *BatchContext) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.level1)
}
