package tu

import (
	"sync"
)

// Manager tracks the current TranslationUnit for every open URI. It is
// safe for concurrent use; handlers running on the server's worker pool
// call Get while Open/Change/Close mutate the map.
type Manager struct {
	mu   sync.RWMutex
	docs map[string]*TranslationUnit
}

// NewManager returns an empty Manager.
func NewManager() *Manager {
	return &Manager{docs: make(map[string]*TranslationUnit)}
}

// Open parses src as version's content of uri, replacing any prior unit.
func (m *Manager) Open(uri string, version int32, src []byte) *TranslationUnit {
	unit := analyze(uri, version, src)
	m.mu.Lock()
	m.docs[uri] = unit
	m.mu.Unlock()
	return unit
}

// Change applies changes on top of the current unit for uri and reparses
// the result. version must be strictly greater than the tracked version.
func (m *Manager) Change(uri string, version int32, changes []Change) (*TranslationUnit, error) {
	m.mu.RLock()
	cur, ok := m.docs[uri]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	if version <= cur.Version {
		return nil, ErrStaleVersion
	}

	nextSrc, err := applyChanges(cur.Source(), changes)
	if err != nil {
		return nil, err
	}
	next := analyze(uri, version, nextSrc)

	m.mu.Lock()
	// A concurrent Change may have raced us; only install if no newer
	// version has been installed in the meantime.
	if latest, ok := m.docs[uri]; !ok || latest.Version < next.Version {
		m.docs[uri] = next
	} else {
		next = latest
	}
	m.mu.Unlock()
	return next, nil
}

// Close stops tracking uri.
func (m *Manager) Close(uri string) {
	m.mu.Lock()
	delete(m.docs, uri)
	m.mu.Unlock()
}

// Get returns the current translation unit for uri, if any.
func (m *Manager) Get(uri string) (*TranslationUnit, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	unit, ok := m.docs[uri]
	return unit, ok
}

// AtVersion returns the current unit for uri iff it is exactly at version.
func (m *Manager) AtVersion(uri string, version int32) (*TranslationUnit, error) {
	unit, ok := m.Get(uri)
	if !ok {
		return nil, ErrDocumentNotOpen
	}
	if unit.Version != version {
		return nil, ErrStaleVersion
	}
	return unit, nil
}
