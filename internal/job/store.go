// Copyright (c) 2026 navygod. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// dwyt - 在线视频下载与转码服务

package job

import (
	"fmt"
	"sync"
	"time"
)

// StartingMessage is the message of a freshly created job
const StartingMessage = "Iniciando download..."

// Store keeps jobs in memory. Entries are never removed.
type Store interface {
	Create(id string) (Job, error)
	Update(id string, state State) (Job, error)
	Get(id string) (Job, error)
	Len() int
}

type store struct {
	jobs map[string]*Job
	now  func() time.Time
	mu   sync.RWMutex
}

// NewStore creates an in-memory job store
func NewStore() Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock is NewStore with an injectable clock
func NewStoreWithClock(now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &store{
		jobs: make(map[string]*Job),
		now:  now,
	}
}

func (s *store) Create(id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[id]; exists {
		return Job{}, ErrExists
	}

	j := &Job{
		ID:        id,
		Status:    StatusStarting,
		Message:   StartingMessage,
		Timestamp: s.now(),
	}
	s.jobs[id] = j
	return *j, nil
}

func (s *store) Update(id string, state State) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	if j.Status.IsTerminal() {
		return *j, ErrTerminal
	}
	if !canTransition(j.Status, state.Status) {
		return *j, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, state.Status)
	}

	j.Status = state.Status
	j.Message = state.Message
	j.Timestamp = s.now()
	if state.Status == StatusCompleted {
		j.File = state.File
	}
	return *j, nil
}

func (s *store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	j, ok := s.jobs[id]
	if !ok {
		return Job{}, ErrNotFound
	}
	return *j, nil
}

func (s *store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}
