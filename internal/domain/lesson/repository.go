package lesson

import (
	"context"
	"time"
)

// HistoryEntry pairs a finished block with its computed index for the
// teacher dashboard history view.
type HistoryEntry struct {
	Block *LessonBlock
	Index *BlockIndex
}

// Repository defines the interface for lesson data persistence.
// Implemented by the infrastructure layer; the domain has no knowledge of
// the actual storage mechanism.
type Repository interface {
	// Student operations

	// CreateStudent persists a new student.
	CreateStudent(ctx context.Context, s *Student) error

	// GetStudent returns a student by ID.
	GetStudent(ctx context.Context, id StudentID) (*Student, error)

	// Profile operations

	// SaveProfile creates or replaces a student's neuro-profile.
	SaveProfile(ctx context.Context, p *NeuroProfile) error

	// GetProfile returns the neuro-profile for a student.
	GetProfile(ctx context.Context, studentID StudentID) (*NeuroProfile, error)

	// Block operations

	// CreateBlock persists a new running lesson block.
	CreateBlock(ctx context.Context, b *LessonBlock) error

	// GetBlock returns a lesson block by ID.
	GetBlock(ctx context.Context, id BlockID) (*LessonBlock, error)

	// GetLastBlock returns the most recently started block for a student.
	GetLastBlock(ctx context.Context, studentID StudentID) (*LessonBlock, error)

	// Event operations

	// InsertEvent persists a task event.
	InsertEvent(ctx context.Context, e *TaskEvent) error

	// ListEvents returns all task events for a block ordered by creation time.
	ListEvents(ctx context.Context, blockID BlockID) ([]*TaskEvent, error)

	// Index operations

	// GetBlockIndex returns the computed index for a block, if any.
	GetBlockIndex(ctx context.Context, blockID BlockID) (*BlockIndex, error)

	// FinishBlock atomically inserts the block index and stamps the block's
	// finished_at. Either both are durably recorded or neither is.
	// Returns ErrBlockAlreadyFinished if the block already has an index or
	// a finish stamp.
	FinishBlock(ctx context.Context, idx *BlockIndex, finishedAt time.Time) error

	// ListHistory returns every finished block of a student with its index,
	// ordered by block start time.
	ListHistory(ctx context.Context, studentID StudentID) ([]HistoryEntry, error)
}
