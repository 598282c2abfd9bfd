package server

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/lib-uoguelph-ca/omeka-s/pkg/db"
)

const serverTestPrefix = "server:server_test"

// memStore is an in-memory resource store and status source.
type memStore struct {
	mu      sync.Mutex
	next    int
	rows    map[string]map[string]*db.Resource
	themes  []db.Theme
	pingErr error
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]map[string]*db.Resource{}}
}

func (s *memStore) Ping(context.Context) error { return s.pingErr }

func (s *memStore) ListThemes(context.Context) ([]db.Theme, error) {
	if s.pingErr != nil {
		return nil, s.pingErr
	}
	return s.themes, nil
}

func (s *memStore) SearchResources(_ context.Context, resource string, _ db.SearchParams) ([]db.Resource, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]db.Resource, 0, len(s.rows[resource]))
	for i := 1; i <= s.next; i++ {
		if r, ok := s.rows[resource][fmt.Sprintf("%03d", i)]; ok {
			out = append(out, *r)
		}
	}
	return out, len(out), nil
}

func (s *memStore) GetResource(_ context.Context, resource, id string) (*db.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[resource][id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) InsertResources(_ context.Context, resource string, items []map[string]any) ([]db.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[resource] == nil {
		s.rows[resource] = map[string]*db.Resource{}
	}
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	out := make([]db.Resource, 0, len(items))
	for _, item := range items {
		s.next++
		r := &db.Resource{ID: fmt.Sprintf("%03d", s.next), Resource: resource, Data: item, Created: now, Modified: now}
		s.rows[resource][r.ID] = r
		out = append(out, *r)
	}
	return out, nil
}

func (s *memStore) UpdateResource(_ context.Context, resource, id string, data map[string]any, partial bool) (*db.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[resource][id]
	if !ok {
		return nil, nil
	}
	if partial {
		for k, v := range data {
			r.Data[k] = v
		}
	} else {
		r.Data = data
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) DeleteResource(_ context.Context, resource, id string) (*db.Resource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[resource][id]
	if !ok {
		return nil, nil
	}
	delete(s.rows[resource], id)
	return r, nil
}

// startTestServer starts an in-process NATS server for testing.
func startTestServer(t *testing.T, port int) *comms.Conn {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	}
	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("%s - failed to create NATS server: %v", serverTestPrefix, err)
	}
	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - NATS server failed to start", serverTestPrefix)
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", serverTestPrefix, err)
	}

	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})
	return nc
}
