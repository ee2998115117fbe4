package bot

import "sync"

type step int

const (
	stepName step = iota
	stepGroup
	stepRoom
	stepWishes
)

// draft is a registration in progress.
type draft struct {
	step     step
	fullName string
	group    string
	room     string
}

// sessions keeps wizard state per Telegram user. State is lost on restart;
// the user simply sends /start again.
type sessions struct {
	mu sync.Mutex
	m  map[int64]*draft
}

func newSessions() *sessions {
	return &sessions{m: make(map[int64]*draft)}
}

func (s *sessions) begin(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = &draft{step: stepName}
}

// get returns a copy so callers can read it without holding the lock.
func (s *sessions) get(userID int64) (draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.m[userID]
	if !ok {
		return draft{}, false
	}
	return *d, true
}

func (s *sessions) put(userID int64, d draft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = &d
}

func (s *sessions) drop(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.m[userID]
	delete(s.m, userID)
	return ok
}
