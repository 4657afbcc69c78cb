package localfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/terrapesca/checkin-backend-go/internal/domain/attendance"
)

// PendingStore is a durable append-only queue of attendance events awaiting
// remote commit, serialized as one JSON file. Every mutation is a whole-list
// read-modify-write under the mutex, persisted with a temp-file rename so a
// crash mid-write can never leave a half-written queue.
type PendingStore struct {
	path           string
	deadLetterPath string
	maxAttempts    int // 0 retries forever
	mu             sync.Mutex
}

func NewPendingStore(path, deadLetterPath string, maxAttempts int) *PendingStore {
	return &PendingStore{
		path:           path,
		deadLetterPath: deadLetterPath,
		maxAttempts:    maxAttempts,
	}
}

// Append implements attendance.PendingStore.
func (s *PendingStore) Append(event attendance.PendingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}
	events = append(events, event)
	return s.persist(events)
}

// List implements attendance.PendingStore.
func (s *PendingStore) List() ([]attendance.PendingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Count implements attendance.PendingStore.
func (s *PendingStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

// RemoveSucceeded implements attendance.PendingStore. The rewrite is a single
// atomic persist: after a crash the queue either still holds an event or the
// remote store does, never neither.
func (s *PendingStore) RemoveSucceeded(indices []int) error {
	if len(indices) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}

	succeeded := make(map[int]bool, len(indices))
	for _, i := range indices {
		succeeded[i] = true
	}

	remaining := make([]attendance.PendingEvent, 0, len(events))
	for i, ev := range events {
		if !succeeded[i] {
			remaining = append(remaining, ev)
		}
	}

	return s.persist(remaining)
}

// MarkFailed implements attendance.PendingStore. Keyed by event id so it
// stays correct after RemoveSucceeded shifted queue positions.
func (s *PendingStore) MarkFailed(failures map[string]string) error {
	if len(failures) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}

	var remaining, exhausted []attendance.PendingEvent
	for _, ev := range events {
		msg, failed := failures[ev.Event.ID]
		if failed {
			ev.Attempts++
			ev.LastError = &msg
		}
		if failed && s.maxAttempts > 0 && ev.Attempts >= s.maxAttempts {
			exhausted = append(exhausted, ev)
			continue
		}
		remaining = append(remaining, ev)
	}

	if len(exhausted) > 0 {
		if err := s.appendDeadLetter(exhausted); err != nil {
			// Keep the events queued rather than lose them with the
			// dead-letter write.
			return err
		}
	}

	return s.persist(remaining)
}

// load reads the queue file; a missing file is an empty queue.
func (s *PendingStore) load() ([]attendance.PendingEvent, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []attendance.PendingEvent{}, nil
		}
		return nil, fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}

	var events []attendance.PendingEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("%w: corrupt queue file: %v", attendance.ErrQueuePersistence, err)
	}
	return events, nil
}

func (s *PendingStore) persist(events []attendance.PendingEvent) error {
	if events == nil {
		events = []attendance.PendingEvent{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}

	tmp := s.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}
	return nil
}

func (s *PendingStore) appendDeadLetter(events []attendance.PendingEvent) error {
	var existing []attendance.PendingEvent
	data, err := os.ReadFile(s.deadLetterPath)
	if err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("%w: corrupt dead-letter file: %v", attendance.ErrQueuePersistence, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}

	existing = append(existing, events...)
	out, err := json.MarshalIndent(existing, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}

	tmp := s.deadLetterPath + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}
	if err := os.Rename(tmp, s.deadLetterPath); err != nil {
		return fmt.Errorf("%w: %v", attendance.ErrQueuePersistence, err)
	}
	return nil
}
