package buffer

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// FrameID identifies a frame slot in the buffer pool's flat frame array.
type FrameID int32

// AccessType hints at why a frame was touched. The LRU-K policy below
// ignores it; the interface reserves it for future replacement policies.
type AccessType int

const (
	AccessUnknown AccessType = iota
	AccessLookup
	AccessScan
	AccessIndex
)

var (
	clockMu sync.Mutex
	lastTS  int64
)

// monotonicTimestamp returns a nanosecond timestamp strictly greater than
// every timestamp previously returned by this function, so that back to
// back RecordAccess calls are always distinguishable regardless of the
// wall clock's actual resolution on the host.
func monotonicTimestamp() int64 {
	clockMu.Lock()
	defer clockMu.Unlock()
	now := time.Now().UnixNano()
	if now <= lastTS {
		now = lastTS + 1
	}
	lastTS = now
	return now
}

// lruKNode is the per-frame replacement state: up to k access timestamps,
// newest first, plus whether the frame is currently a candidate victim.
type lruKNode struct {
	history   []int64
	evictable bool
}

// oldest returns the least recent timestamp this node has recorded.
func (n *lruKNode) oldest() int64 {
	return n.history[len(n.history)-1]
}

// LRUKReplacer selects a victim frame among evictable frames using the
// LRU-K policy: the frame with the largest backward k-distance is chosen,
// with infinite distance (fewer than k recorded accesses) always beating
// any finite distance, and ties broken as documented on Evict.
type LRUKReplacer struct {
	mu       sync.Mutex
	k        int
	capacity int
	nodes    map[FrameID]*lruKNode
	// order preserves frame creation order so that ties among frames with
	// exactly equal finite k-distance resolve deterministically instead
	// of depending on Go's randomized map iteration.
	order          []FrameID
	evictableCount int
}

// NewLRUKReplacer builds a replacer for a pool of the given capacity with
// policy parameter k.
func NewLRUKReplacer(capacity, k int) *LRUKReplacer {
	if k <= 0 {
		panic("buffer: LRU-K parameter k must be positive")
	}
	return &LRUKReplacer{
		k:        k,
		capacity: capacity,
		nodes:    make(map[FrameID]*lruKNode),
	}
}

// RecordAccess appends the current timestamp to frameID's history,
// creating the frame's node (as non-evictable) on first access.
func (r *LRUKReplacer) RecordAccess(frameID FrameID, _ AccessType) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := monotonicTimestamp()
	node, ok := r.nodes[frameID]
	if !ok {
		node = &lruKNode{history: []int64{ts}}
		r.nodes[frameID] = node
		r.order = append(r.order, frameID)
		return
	}
	node.history = append([]int64{ts}, node.history...)
	if len(node.history) > r.k {
		node.history = node.history[:r.k]
	}
}

// SetEvictable toggles frameID's evictable flag. It panics for an unknown
// frame, and panics if the evictable count would exceed the replacer's
// capacity — both are programming errors, never runtime conditions.
func (r *LRUKReplacer) SetEvictable(frameID FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[frameID]
	if !ok {
		panic(fmt.Sprintf("buffer: SetEvictable on unknown frame %d", frameID))
	}
	if node.evictable == evictable {
		return
	}
	if evictable {
		if r.evictableCount+1 > r.capacity {
			panic(fmt.Sprintf("buffer: evictable count would exceed capacity %d", r.capacity))
		}
		r.evictableCount++
	} else {
		r.evictableCount--
	}
	node.evictable = evictable
}

// Remove drops frameID's node entirely. It is a no-op for an unknown
// frame, but panics if the frame is known and not evictable.
func (r *LRUKReplacer) Remove(frameID FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	node, ok := r.nodes[frameID]
	if !ok {
		return
	}
	if !node.evictable {
		panic(fmt.Sprintf("buffer: Remove of non-evictable frame %d", frameID))
	}
	r.deleteLocked(frameID)
}

func (r *LRUKReplacer) deleteLocked(frameID FrameID) {
	delete(r.nodes, frameID)
	r.evictableCount--
	for i, id := range r.order {
		if id == frameID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Evict picks and removes the victim frame: among evictable frames, the
// one with the largest backward k-distance wins; frames with fewer than k
// recorded accesses have infinite distance and beat every finite-distance
// frame. Ties among infinite-distance frames are broken by earliest
// oldest-recorded access (classical LRU among them); ties among
// finite-distance frames keep frame creation order. Evict returns
// (0, false) if no frame is currently evictable.
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UnixNano()

	type candidate struct {
		id       FrameID
		infinite bool
		distance int64 // meaningful only when !infinite
		oldest   int64
	}

	var candidates []candidate
	for _, id := range r.order {
		node := r.nodes[id]
		if !node.evictable {
			continue
		}
		c := candidate{id: id, oldest: node.oldest()}
		if len(node.history) < r.k {
			c.infinite = true
		} else {
			c.distance = now - node.oldest()
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return 0, false
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.infinite != b.infinite {
			return a.infinite // infinite sorts first (largest distance)
		}
		if a.infinite {
			return a.oldest < b.oldest // earliest oldest access wins the tie
		}
		return a.distance > b.distance
	})

	victim := candidates[0].id
	r.deleteLocked(victim)
	return victim, true
}

// Size reports the current number of evictable frames.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableCount
}
