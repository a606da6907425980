package crawler

import "github.com/nao1215/maxtract/internal/model"

// entry is one queued address and the level it was discovered at.
type entry struct {
	address model.Address
	level   int
}

// frontier is the FIFO of addresses waiting to be settled.
//
// Entries are never removed from the backing slice: head marks the next entry
// to settle and next the next entry to hand to a worker, so
// head <= next <= len(entries). known remembers every address ever queued,
// which covers both the Graph keys and the pending frontier.
type frontier struct {
	entries []entry
	head    int
	next    int
	known   map[model.Address]struct{}
}

func newFrontier() *frontier {
	return &frontier{known: make(map[model.Address]struct{})}
}

// push appends address unless it was queued before. It reports whether the
// address was added.
func (f *frontier) push(address model.Address, level int) bool {
	if _, ok := f.known[address]; ok {
		return false
	}
	f.known[address] = struct{}{}
	f.entries = append(f.entries, entry{address: address, level: level})
	return true
}

// len returns the number of queued entries not yet settled.
func (f *frontier) len() int {
	return len(f.entries) - f.head
}

// peekDispatch returns the next entry to hand to a worker.
func (f *frontier) peekDispatch() (int, entry, bool) {
	if f.next >= len(f.entries) {
		return 0, entry{}, false
	}
	return f.next, f.entries[f.next], true
}

// markDispatched advances past the entry returned by peekDispatch.
func (f *frontier) markDispatched() {
	f.next++
}

// pop settles the head entry and returns its sequence number.
func (f *frontier) pop() (int, entry) {
	seq := f.head
	f.head++
	return seq, f.entries[seq]
}

// headSeq returns the sequence number of the next entry to settle.
func (f *frontier) headSeq() int {
	return f.head
}
