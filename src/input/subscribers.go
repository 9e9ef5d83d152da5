package input

import "sync"

// subscribers is the fan-out list shared by every Source implementation.
type subscribers struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

func (s *subscribers) add(h Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs == nil {
		s.subs = make(map[int]Handler)
	}
	id := s.nextID
	s.nextID++
	s.subs[id] = h

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// emit delivers ev synchronously; with no subscribers the event is dropped.
func (s *subscribers) emit(ev PointerEvent) {
	s.mu.RLock()
	handlers := make([]Handler, 0, len(s.subs))
	for id := 0; id < s.nextID; id++ {
		if h, ok := s.subs[id]; ok {
			handlers = append(handlers, h)
		}
	}
	s.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
