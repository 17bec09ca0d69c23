package tasks

import "sync"

// Tracker accumulates completion across a weighted progress tree and reports
// the overall percentage through a channel of [ProgressUpdate].
//
// The tree mirrors the shape of a run: the root spans the whole run, Split
// divides a node's share evenly among children, and completing a leaf adds its
// share to the total. Uneven subtree sizes therefore never skew the bar; a
// user with two movies advances the same amount as one with two thousand.
type Tracker struct {
	mu       sync.Mutex
	complete float64
	progress chan<- ProgressUpdate
}

// NewTracker creates a Tracker reporting to the given channel.
// A nil channel is allowed; tracking still works, nothing is emitted.
func NewTracker(progress chan<- ProgressUpdate) *Tracker {
	return &Tracker{progress: progress}
}

// Root returns the node spanning the entire run.
func (t *Tracker) Root() *Node {
	return &Node{tracker: t, share: 1}
}

// Percent returns the overall completion so far, 0 to 100.
func (t *Tracker) Percent() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.complete * 100
}

// Send emits an update without blocking. The Percent field is filled in from
// the tracker's current total.
func (t *Tracker) Send(update ProgressUpdate) {
	update.Percent = t.Percent()
	t.send(update)
}

// send delivers an update with select-default so a slow or absent consumer
// never stalls the sync.
func (t *Tracker) send(update ProgressUpdate) {
	if t.progress == nil {
		return
	}
	select {
	case t.progress <- update:
	default:
	}
}

// add credits a completed share to the total, clamped to 1.
func (t *Tracker) add(share float64) {
	t.mu.Lock()
	t.complete += share
	if t.complete > 1 {
		t.complete = 1
	}
	t.mu.Unlock()
}

// Node is one segment of the progress tree, owning a fixed share of the run.
type Node struct {
	tracker   *Tracker
	share     float64
	done      bool
	delegated bool
}

// Split divides the node's share evenly among count children and hands
// completion responsibility to them. Splitting into zero children completes
// the node immediately, so empty phases still advance the bar.
func (n *Node) Split(count int) []*Node {
	if n.done || n.delegated {
		return nil
	}
	if count <= 0 {
		n.Complete()
		return nil
	}

	n.delegated = true
	children := make([]*Node, count)
	share := n.share / float64(count)
	for i := range children {
		children[i] = &Node{tracker: n.tracker, share: share}
	}
	return children
}

// Complete credits the node's full share to the tracker. Completing twice, or
// completing a node that has been split, has no effect.
func (n *Node) Complete() {
	if n.done || n.delegated {
		return
	}
	n.done = true
	n.tracker.add(n.share)
}
