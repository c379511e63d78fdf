package fragment

import "sync"

// Memory is an in-process Navigator for non-browser hosts and tests.
// Navigate records the target URL instead of leaving the process; a host
// simulating a provider redirect sets the callback fragment with SetFragment.
type Memory struct {
	mu       sync.Mutex
	url      string
	fragment string
}

// Compile-time interface check
var _ Navigator = (*Memory)(nil)

// NewMemory creates an in-process navigator with no location.
func NewMemory() *Memory {
	return &Memory{}
}

// Navigate records the target URL. If the URL carries a fragment, the
// fragment becomes the current one, matching what a real navigation does.
func (m *Memory) Navigate(url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
	m.fragment = ""
	for i := 0; i < len(url); i++ {
		if url[i] == '#' {
			m.fragment = url[i+1:]
			m.url = url[:i]
			break
		}
	}
}

// URL returns the last navigation target, without any fragment.
func (m *Memory) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.url
}

// SetFragment sets the current fragment, as a provider redirect would.
func (m *Memory) SetFragment(fragment string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragment = fragment
}

// Fragment returns the current fragment identifier.
func (m *Memory) Fragment() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fragment
}

// ClearFragment removes the current fragment.
func (m *Memory) ClearFragment() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fragment = ""
}
