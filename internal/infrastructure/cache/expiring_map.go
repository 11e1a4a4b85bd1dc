package cache

import (
	"sync"
	"time"
)

type expiringValue[V any] struct {
	value     V
	expiresAt time.Time
}

// expiringMap is a mutex guarded map whose values expire after a TTL. A
// background sweep deletes expired values; reads ignore them before that.
type expiringMap[V any] struct {
	mu        sync.RWMutex
	entries   map[string]expiringValue[V]
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func newExpiringMap[V any](sweepInterval time.Duration) *expiringMap[V] {
	m := &expiringMap[V]{
		entries:  make(map[string]expiringValue[V]),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	m.wg.Add(1)
	go m.sweepLoop(sweepInterval)
	return m
}

func (m *expiringMap[V]) set(key string, value V, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = expiringValue[V]{value: value, expiresAt: m.now().Add(ttl)}
}

// setIfAbsent stores value unless a live value exists. It reports whether the
// value was stored.
func (m *expiringMap[V]) setIfAbsent(key string, value V, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expiresAt) {
		return false
	}
	m.entries[key] = expiringValue[V]{value: value, expiresAt: now.Add(ttl)}
	return true
}

func (m *expiringMap[V]) get(key string) (V, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok || !m.now().Before(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (m *expiringMap[V]) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, e := range m.entries {
		if !now.Before(e.expiresAt) {
			delete(m.entries, key)
		}
	}
}

func (m *expiringMap[V]) size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *expiringMap[V]) close() {
	m.closeOnce.Do(func() {
		close(m.stopChan)
		m.wg.Wait()
	})
}

func (m *expiringMap[V]) sweepLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}
