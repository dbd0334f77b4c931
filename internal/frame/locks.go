package frame

import "sync"

// lockState tracks the in-frame holders of one resource key.
type lockState struct {
	writer  string
	readers map[string]struct{}
}

// lockTable arbitrates the frame's declared resource keys. Only the
// coordinator touches it, so it needs no locking of its own.
type lockTable map[string]*lockState

func (lt lockTable) state(key string) *lockState {
	ls, ok := lt[key]
	if !ok {
		ls = &lockState{readers: make(map[string]struct{})}
		lt[key] = ls
	}
	return ls
}

// canRead reports whether a read lock on key would conflict. Concurrent
// readers are fine; a held write lock is not.
func (lt lockTable) canRead(key string) bool {
	ls, ok := lt[key]
	return !ok || ls.writer == ""
}

// canWrite reports whether a write lock on key would conflict. A write
// excludes every concurrent reader and writer.
func (lt lockTable) canWrite(key string) bool {
	ls, ok := lt[key]
	return !ok || (ls.writer == "" && len(ls.readers) == 0)
}

func (lt lockTable) lockRead(key, node string) {
	lt.state(key).readers[node] = struct{}{}
}

func (lt lockTable) lockWrite(key, node string) {
	lt.state(key).writer = node
}

func (lt lockTable) unlock(node string, reads, writes []string) {
	for _, key := range reads {
		if ls, ok := lt[key]; ok {
			delete(ls.readers, node)
		}
	}
	for _, key := range writes {
		if ls, ok := lt[key]; ok && ls.writer == node {
			ls.writer = ""
		}
	}
}

// holders lists the nodes currently holding key, for diagnostics.
func (lt lockTable) holders(key string) []string {
	ls, ok := lt[key]
	if !ok {
		return nil
	}
	var out []string
	if ls.writer != "" {
		out = append(out, ls.writer+" (write)")
	}
	for reader := range ls.readers {
		out = append(out, reader+" (read)")
	}
	return out
}

// obligation is the set of nodes still owing a read or a write on one key
// within one frame.
type obligation struct {
	readers map[string]struct{}
	writers map[string]struct{}
}

// ObligationTable records, per declared resource key, which nodes of a frame
// have not yet satisfied their declared access. The table outlives its frame:
// the next frame consults it so that its writers cannot race the prior
// frame's unfinished readers or writers. The mutex covers exactly that
// cross-frame read while the owning coordinator still drains entries.
type ObligationTable struct {
	mu sync.Mutex
	m  map[string]*obligation
}

// NewObligationTable returns an empty table.
func NewObligationTable() *ObligationTable {
	return &ObligationTable{m: make(map[string]*obligation)}
}

func (t *ObligationTable) owe(node string, reads, writes []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range reads {
		t.entry(key).readers[node] = struct{}{}
	}
	for _, key := range writes {
		t.entry(key).writers[node] = struct{}{}
	}
}

func (t *ObligationTable) entry(key string) *obligation {
	ob, ok := t.m[key]
	if !ok {
		ob = &obligation{readers: make(map[string]struct{}), writers: make(map[string]struct{})}
		t.m[key] = ob
	}
	return ob
}

// drain removes a finished node from every key it owed.
func (t *ObligationTable) drain(node string, reads, writes []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, key := range reads {
		if ob, ok := t.m[key]; ok {
			delete(ob.readers, node)
		}
	}
	for _, key := range writes {
		if ob, ok := t.m[key]; ok {
			delete(ob.writers, node)
		}
	}
}

// HasWriters reports whether any node still owes a write on key.
func (t *ObligationTable) HasWriters(key string) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ob, ok := t.m[key]
	return ok && len(ob.writers) > 0
}

// HasAny reports whether any node still owes any access on key.
func (t *ObligationTable) HasAny(key string) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ob, ok := t.m[key]
	return ok && (len(ob.writers) > 0 || len(ob.readers) > 0)
}

// Drained reports whether every obligation was satisfied.
func (t *ObligationTable) Drained() bool {
	if t == nil {
		return true
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, ob := range t.m {
		if len(ob.writers) > 0 || len(ob.readers) > 0 {
			return false
		}
	}
	return true
}
