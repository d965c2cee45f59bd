// Package modal is a generic overlay: it shows one piece of content at a
// time, closes on Escape or a backdrop click and locks page scroll while
// open.
package modal

import "sync"

// Region identifies where a click landed.
type Region string

const (
	Backdrop Region = "backdrop"
	Content  Region = "content"
)

// KeyEscape is the key name that closes the modal.
const KeyEscape = "Escape"

// Modal holds the overlay state. onClose runs at most once per
// interaction and never while the modal is hidden.
type Modal struct {
	mu           sync.Mutex
	open         bool
	content      any
	scrollLocked bool
	onClose      func()
}

// New returns a hidden modal.
func New(onClose func()) *Modal {
	return &Modal{onClose: onClose}
}

// Show displays content and locks background scroll.
func (m *Modal) Show(content any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.content = content
	m.scrollLocked = true
}

// Hide drops the content and restores scroll.
func (m *Modal) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hideLocked()
}

// Release is the unmount path; scroll is restored whatever the state.
func (m *Modal) Release() {
	m.Hide()
}

func (m *Modal) hideLocked() {
	m.open = false
	m.content = nil
	m.scrollLocked = false
}

func (m *Modal) Open() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

func (m *Modal) Content() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

// ScrollLocked reports whether background scroll must be suppressed.
func (m *Modal) ScrollLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scrollLocked
}

// HandleKey reacts to a key press. It reports whether the close callback
// ran.
func (m *Modal) HandleKey(key string) bool {
	if key != KeyEscape {
		return false
	}
	return m.requestClose()
}

// HandleClick reacts to a click. Clicks on the content region never close.
func (m *Modal) HandleClick(r Region) bool {
	if r != Backdrop {
		return false
	}
	return m.requestClose()
}

// Close is the explicit close button.
func (m *Modal) Close() bool {
	return m.requestClose()
}

func (m *Modal) requestClose() bool {
	m.mu.Lock()
	if !m.open {
		m.mu.Unlock()
		return false
	}
	m.hideLocked()
	cb := m.onClose
	m.mu.Unlock()

	if cb != nil {
		cb()
	}
	return true
}
