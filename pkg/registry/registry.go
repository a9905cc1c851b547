package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cuemby/tagbridge/pkg/member"
)

// Registry maps tags to member handles. The direct namespace holds one handle
// per tag; the subscriber namespace holds a deduplicated set per tag. The two
// namespaces are independent. There is no registry-wide lock: tags live in
// sync.Maps and each subscriber set serializes only its own writers.
type Registry struct {
	direct      sync.Map // string -> *member.Handle
	subscribers sync.Map // string -> *subscriberSet
}

// New creates an empty registry
func New() *Registry {
	return &Registry{}
}

// Bind installs h as the direct handle for h.Tag and returns the handle it
// replaced, if any.
func (r *Registry) Bind(h *member.Handle) (*member.Handle, bool) {
	prev, loaded := r.direct.Swap(h.Tag, h)
	if !loaded {
		return nil, false
	}
	return prev.(*member.Handle), true
}

// Lookup returns the direct handle for tag.
func (r *Registry) Lookup(tag string) (*member.Handle, bool) {
	v, ok := r.direct.Load(tag)
	if !ok {
		return nil, false
	}
	return v.(*member.Handle), true
}

// RemoveIf removes the direct binding for tag only if it is still h, so a
// concurrent re-registration is never discarded by a stale prune.
func (r *Registry) RemoveIf(tag string, h *member.Handle) bool {
	return r.direct.CompareAndDelete(tag, h)
}

// Remove removes the direct binding for tag.
func (r *Registry) Remove(tag string) bool {
	_, loaded := r.direct.LoadAndDelete(tag)
	return loaded
}

// RemoveAll removes every direct binding and returns how many were removed.
func (r *Registry) RemoveAll() int {
	n := 0
	r.direct.Range(func(k, _ any) bool {
		if _, loaded := r.direct.LoadAndDelete(k); loaded {
			n++
		}
		return true
	})
	return n
}

// Tags returns the sorted direct tags.
func (r *Registry) Tags() []string {
	var tags []string
	r.direct.Range(func(k, _ any) bool {
		tags = append(tags, k.(string))
		return true
	})
	sort.Strings(tags)
	return tags
}

// DirectCount returns the number of direct bindings.
func (r *Registry) DirectCount() int {
	n := 0
	r.direct.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// subscriberSet is a copy-on-write handle list. Readers load an immutable
// snapshot; writers hold mu while building the next one.
type subscriberSet struct {
	mu      sync.Mutex
	removed bool
	handles atomic.Pointer[[]*member.Handle]
}

func (s *subscriberSet) snapshot() []*member.Handle {
	if p := s.handles.Load(); p != nil {
		return *p
	}
	return nil
}

// AddSubscriber adds h to the subscriber set of h.Tag. It returns false if a
// handle with the same Key is already present.
func (r *Registry) AddSubscriber(h *member.Handle) bool {
	key := h.Key()
	for {
		v, _ := r.subscribers.LoadOrStore(h.Tag, &subscriberSet{})
		set := v.(*subscriberSet)

		set.mu.Lock()
		if set.removed {
			// Lost a race with Unsubscribe; retry against the fresh set.
			set.mu.Unlock()
			continue
		}

		cur := set.snapshot()
		for _, existing := range cur {
			if existing.Key() == key {
				set.mu.Unlock()
				return false
			}
		}

		next := make([]*member.Handle, len(cur), len(cur)+1)
		copy(next, cur)
		next = append(next, h)
		set.handles.Store(&next)
		set.mu.Unlock()
		return true
	}
}

// Subscribers returns a snapshot of the subscriber set for tag. The slice is
// never mutated afterwards and may be iterated while writers proceed.
func (r *Registry) Subscribers(tag string) []*member.Handle {
	v, ok := r.subscribers.Load(tag)
	if !ok {
		return nil
	}
	return v.(*subscriberSet).snapshot()
}

// RemoveSubscribers removes the handles of tag's subscriber set for which drop
// returns true, and returns how many were removed. A set left empty is
// dropped from the registry.
func (r *Registry) RemoveSubscribers(tag string, drop func(*member.Handle) bool) int {
	v, ok := r.subscribers.Load(tag)
	if !ok {
		return 0
	}
	set := v.(*subscriberSet)

	set.mu.Lock()
	defer set.mu.Unlock()

	cur := set.snapshot()
	next := make([]*member.Handle, 0, len(cur))
	for _, h := range cur {
		if !drop(h) {
			next = append(next, h)
		}
	}
	removed := len(cur) - len(next)
	if removed == 0 {
		return 0
	}
	set.handles.Store(&next)
	if len(next) == 0 {
		set.removed = true
		r.subscribers.CompareAndDelete(tag, set)
	}
	return removed
}

// Unsubscribe drops the whole subscriber set for tag.
func (r *Registry) Unsubscribe(tag string) bool {
	v, loaded := r.subscribers.LoadAndDelete(tag)
	if !loaded {
		return false
	}
	set := v.(*subscriberSet)
	set.mu.Lock()
	set.removed = true
	set.mu.Unlock()
	return true
}

// UnsubscribeAll drops every subscriber set and returns how many tags were
// cleared.
func (r *Registry) UnsubscribeAll() int {
	n := 0
	r.subscribers.Range(func(k, _ any) bool {
		if r.Unsubscribe(k.(string)) {
			n++
		}
		return true
	})
	return n
}

// SubscribedTags returns the sorted tags that have a subscriber set.
func (r *Registry) SubscribedTags() []string {
	var tags []string
	r.subscribers.Range(func(k, _ any) bool {
		tags = append(tags, k.(string))
		return true
	})
	sort.Strings(tags)
	return tags
}

// SubscriberCount returns the total number of subscriber handles.
func (r *Registry) SubscriberCount() int {
	n := 0
	r.subscribers.Range(func(_, v any) bool {
		n += len(v.(*subscriberSet).snapshot())
		return true
	})
	return n
}

// RemoveOwner removes every direct and subscriber handle owned by owner.
func (r *Registry) RemoveOwner(owner any) (direct, subscribers int) {
	r.direct.Range(func(k, v any) bool {
		if h := v.(*member.Handle); h.OwnedBy(owner) && r.direct.CompareAndDelete(k, h) {
			direct++
		}
		return true
	})
	for _, tag := range r.SubscribedTags() {
		subscribers += r.RemoveSubscribers(tag, func(h *member.Handle) bool {
			return h.OwnedBy(owner)
		})
	}
	return direct, subscribers
}

// PruneDead removes every handle whose owner has been collected. Lookups
// already prune direct bindings lazily; this is an explicit sweep.
func (r *Registry) PruneDead() (direct, subscribers int) {
	r.direct.Range(func(k, v any) bool {
		if h := v.(*member.Handle); !h.Alive() && r.direct.CompareAndDelete(k, h) {
			direct++
		}
		return true
	})
	for _, tag := range r.SubscribedTags() {
		subscribers += r.RemoveSubscribers(tag, func(h *member.Handle) bool {
			return !h.Alive()
		})
	}
	return direct, subscribers
}
