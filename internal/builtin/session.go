package builtin

import "sync"

// Session is the state one prompt loop or one network connection carries
// between command lines.
type Session struct {
	ID     string
	Remote bool
	Peer   string // client address for remote sessions

	mu         sync.Mutex
	dir        string
	lastStatus int
}

// NewSession returns a session rooted at dir.
func NewSession(id, dir string, remote bool) *Session {
	return &Session{ID: id, Remote: remote, dir: dir}
}

// Dir is the working directory for commands started by this session.
func (s *Session) Dir() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dir
}

// SetDir changes the session's working directory.
func (s *Session) SetDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dir = dir
}

// LastStatus is the exit status of the most recent external command.
func (s *Session) LastStatus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStatus
}

// SetLastStatus records the exit status of an external command.
func (s *Session) SetLastStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastStatus = code
}
