package wallet

import "sync"

// Session tracks the currently connected address. The network is fixed
// for the lifetime of the session; the address appears on a successful
// login and disappears on logout or when the user closes the signing
// window mid-login.
type Session struct {
	network Network

	mu      sync.RWMutex
	address string
}

// NewSession creates an empty session scoped to network.
func NewSession(network Network) *Session {
	return &Session{network: network}
}

// Network returns the network the session is scoped to.
func (s *Session) Network() Network {
	return s.network
}

// Address returns the connected address, with ok false when logged out.
func (s *Session) Address() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address, s.address != ""
}

// SetAddress records a successful login. Concurrent logins race
// last-message-wins, which is acceptable because both carry an address
// freshly derived by the signing service.
func (s *Session) SetAddress(address string) {
	s.mu.Lock()
	s.address = address
	s.mu.Unlock()
}

// Clear logs the session out. Signing requests already queued are not
// affected: the address guard runs at enqueue time, not at dequeue time.
func (s *Session) Clear() {
	s.mu.Lock()
	s.address = ""
	s.mu.Unlock()
}
