package drawin

import "sync"

// Set keeps one Animator per route for lines sharing a photo. Animators in a
// set share nothing but the options they were built with.
type Set struct {
	mu   sync.Mutex
	opts Options
	byID map[string]*Animator
}

// NewSet creates an empty Set.
func NewSet(opts Options) *Set {
	return &Set{opts: opts, byID: make(map[string]*Animator)}
}

// Mount attaches el to the animator for id, creating it if needed.
func (s *Set) Mount(id string, el Element) *Animator {
	s.mu.Lock()
	a, ok := s.byID[id]
	if !ok {
		a = New(s.opts)
		s.byID[id] = a
	}
	s.mu.Unlock()

	a.Mount(el)
	return a
}

// Get returns the animator for id.
func (s *Set) Get(id string) (*Animator, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	return a, ok
}

// Replay replays the line for id. Unknown ids are ignored.
func (s *Set) Replay(id string) bool {
	a, ok := s.Get(id)
	if ok {
		a.Replay()
	}
	return ok
}

// Remove unmounts and forgets id.
func (s *Set) Remove(id string) {
	s.mu.Lock()
	a, ok := s.byID[id]
	delete(s.byID, id)
	s.mu.Unlock()
	if ok {
		a.Unmount()
	}
}

// UnmountAll unmounts every animator.
func (s *Set) UnmountAll() {
	s.mu.Lock()
	all := make([]*Animator, 0, len(s.byID))
	for _, a := range s.byID {
		all = append(all, a)
	}
	s.byID = make(map[string]*Animator)
	s.mu.Unlock()

	for _, a := range all {
		a.Unmount()
	}
}

// Len returns the number of tracked animators.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}
