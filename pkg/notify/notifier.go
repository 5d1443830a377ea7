// Package notify carries "collection changed" signals from create/update
// flows to the list controllers that display the collection.
//
// The signal has no payload: a receiver only learns that something changed
// and refreshes. Producers depend on Notifier alone, never on the list.
package notify

import "sync"

// Notifier receives change signals. *pagination.Controller implements it.
type Notifier interface {
	NotifyChanged()
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func()

// NotifyChanged calls f.
func (f NotifierFunc) NotifyChanged() {
	f()
}

// Nop is a Notifier that does nothing.
var Nop Notifier = NotifierFunc(func() {})

// Fanout forwards each signal to every registered Notifier.
type Fanout struct {
	mu        sync.RWMutex
	notifiers map[uint64]Notifier
	next      uint64
}

// NewFanout creates a Fanout with the given initial notifiers.
func NewFanout(notifiers ...Notifier) *Fanout {
	f := &Fanout{notifiers: make(map[uint64]Notifier)}
	for _, n := range notifiers {
		f.Add(n)
	}
	return f
}

// Add registers n and returns a function that removes it.
func (f *Fanout) Add(n Notifier) (remove func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	f.notifiers[id] = n
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.notifiers, id)
	}
}

// Len returns the number of registered notifiers.
func (f *Fanout) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.notifiers)
}

// NotifyChanged forwards the signal to all registered notifiers.
func (f *Fanout) NotifyChanged() {
	f.mu.RLock()
	targets := make([]Notifier, 0, len(f.notifiers))
	for _, n := range f.notifiers {
		targets = append(targets, n)
	}
	f.mu.RUnlock()

	for _, n := range targets {
		n.NotifyChanged()
	}
}
