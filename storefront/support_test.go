package storefront

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/soukhub/go-storecache/cache"
	"github.com/soukhub/go-storecache/pkg/testsupport"
	"github.com/soukhub/go-storecache/querycache"
	"github.com/soukhub/go-storecache/transport"
)

// stubTransport routes requests by "METHOD path" and records every call.
type stubTransport struct {
	mu     sync.Mutex
	calls  []transport.Request
	routes map[string]func(req transport.Request) ([]byte, error)
}

func newStubTransport() *stubTransport {
	return &stubTransport{routes: make(map[string]func(transport.Request) ([]byte, error))}
}

func (s *stubTransport) route(method, path string, fn func(req transport.Request) ([]byte, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = fn
}

func (s *stubTransport) respondWith(method, path string, body []byte) {
	s.route(method, path, func(transport.Request) ([]byte, error) {
		return body, nil
	})
}

func (s *stubTransport) failWith(method, path string, status int) {
	s.route(method, path, func(transport.Request) ([]byte, error) {
		return nil, &transport.Error{Status: status}
	})
}

func (s *stubTransport) Do(_ context.Context, req transport.Request) ([]byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	fn := s.routes[req.Method+" "+req.Path]
	s.mu.Unlock()
	if fn == nil {
		return nil, &transport.Error{Status: 404}
	}
	return fn(req)
}

func (s *stubTransport) count(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, req := range s.calls {
		if req.Method == method && req.Path == path {
			n++
		}
	}
	return n
}

// memStore is an always-fresh payload store; tests drop keys explicitly.
type memStore struct {
	mu   sync.Mutex
	data map[string]any
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]any)}
}

func (m *memStore) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memStore) Set(key string, value any, _ cache.RetentionClass) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
}

func (m *memStore) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

func newFeatureCache(t *testing.T) (*querycache.Cache, *stubTransport) {
	t.Helper()
	tr := newStubTransport()
	c, err := querycache.New(querycache.Options{Store: newMemStore(), Transport: tr})
	if err != nil {
		t.Fatalf("unexpected error creating cache: %v", err)
	}
	t.Cleanup(c.Stop)
	return c, tr
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	return testsupport.LoadFixture(t, testsupport.FixturePath(name))
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		case <-time.After(time.Millisecond):
		}
	}
}
