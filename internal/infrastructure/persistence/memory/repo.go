// Package memory implements an in-memory lesson.Repository.
// Used for local development without PostgreSQL and by application tests.
// Semantics mirror the postgres implementation, including the write-once
// guarantee on block indices.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
)

// LessonRepository is a thread-safe in-memory lesson.Repository.
type LessonRepository struct {
	mu       sync.RWMutex
	students map[lesson.StudentID]*lesson.Student
	profiles map[lesson.StudentID]*lesson.NeuroProfile
	blocks   map[lesson.BlockID]*lesson.LessonBlock
	events   map[lesson.BlockID][]*lesson.TaskEvent
	indices  map[lesson.BlockID]*lesson.BlockIndex
}

// NewLessonRepository creates an empty repository.
func NewLessonRepository() *LessonRepository {
	return &LessonRepository{
		students: make(map[lesson.StudentID]*lesson.Student),
		profiles: make(map[lesson.StudentID]*lesson.NeuroProfile),
		blocks:   make(map[lesson.BlockID]*lesson.LessonBlock),
		events:   make(map[lesson.BlockID][]*lesson.TaskEvent),
		indices:  make(map[lesson.BlockID]*lesson.BlockIndex),
	}
}

// CreateStudent persists a new student.
func (r *LessonRepository) CreateStudent(_ context.Context, s *lesson.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *s
	r.students[s.ID] = &cp
	return nil
}

// GetStudent returns a student by ID.
func (r *LessonRepository) GetStudent(_ context.Context, id lesson.StudentID) (*lesson.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.students[id]
	if !ok {
		return nil, lesson.ErrStudentNotFound
	}
	cp := *s
	return &cp, nil
}

// SaveProfile creates or replaces a student's neuro-profile.
func (r *LessonRepository) SaveProfile(_ context.Context, p *lesson.NeuroProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.profiles[p.StudentID] = &cp
	return nil
}

// GetProfile returns the neuro-profile for a student.
func (r *LessonRepository) GetProfile(_ context.Context, studentID lesson.StudentID) (*lesson.NeuroProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[studentID]
	if !ok {
		return nil, lesson.ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

// CreateBlock persists a new running lesson block.
func (r *LessonRepository) CreateBlock(_ context.Context, b *lesson.LessonBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.blocks[b.ID] = &cp
	return nil
}

// GetBlock returns a lesson block by ID.
func (r *LessonRepository) GetBlock(_ context.Context, id lesson.BlockID) (*lesson.LessonBlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.blocks[id]
	if !ok {
		return nil, lesson.ErrBlockNotFound
	}
	cp := *b
	return &cp, nil
}

// GetLastBlock returns the most recently started block for a student.
func (r *LessonRepository) GetLastBlock(_ context.Context, studentID lesson.StudentID) (*lesson.LessonBlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var last *lesson.LessonBlock
	for _, b := range r.blocks {
		if b.StudentID != studentID {
			continue
		}
		if last == nil || b.StartedAt.After(last.StartedAt) {
			last = b
		}
	}
	if last == nil {
		return nil, lesson.ErrBlockNotFound
	}
	cp := *last
	return &cp, nil
}

// InsertEvent persists a task event.
func (r *LessonRepository) InsertEvent(_ context.Context, e *lesson.TaskEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.events[e.BlockID] = append(r.events[e.BlockID], &cp)
	return nil
}

// ListEvents returns all task events for a block ordered by creation time.
func (r *LessonRepository) ListEvents(_ context.Context, blockID lesson.BlockID) ([]*lesson.TaskEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.events[blockID]
	out := make([]*lesson.TaskEvent, len(src))
	for i, e := range src {
		cp := *e
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetBlockIndex returns the computed index for a block, if any.
func (r *LessonRepository) GetBlockIndex(_ context.Context, blockID lesson.BlockID) (*lesson.BlockIndex, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.indices[blockID]
	if !ok {
		return nil, lesson.ErrBlockNotFound
	}
	cp := *idx
	return &cp, nil
}

// FinishBlock atomically inserts the block index and stamps finished_at.
func (r *LessonRepository) FinishBlock(_ context.Context, idx *lesson.BlockIndex, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.blocks[idx.BlockID]
	if !ok {
		return lesson.ErrBlockNotFound
	}
	if _, exists := r.indices[idx.BlockID]; exists || b.IsFinished() {
		return lesson.ErrBlockAlreadyFinished
	}

	if err := b.Finish(finishedAt); err != nil {
		return err
	}
	cp := *idx
	r.indices[idx.BlockID] = &cp
	return nil
}

// ListHistory returns every finished block of a student with its index,
// ordered by block start time.
func (r *LessonRepository) ListHistory(_ context.Context, studentID lesson.StudentID) ([]lesson.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lesson.HistoryEntry, 0)
	for id, idx := range r.indices {
		b, ok := r.blocks[id]
		if !ok || b.StudentID != studentID {
			continue
		}
		bc, ic := *b, *idx
		out = append(out, lesson.HistoryEntry{Block: &bc, Index: &ic})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Block.StartedAt.Before(out[j].Block.StartedAt)
	})
	return out, nil
}
