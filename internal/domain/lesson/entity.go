// Package lesson contains domain entities and business logic for tutoring
// sessions: students, neuro-profiles, lesson blocks, task events, and the
// per-block score record. This is a pure domain layer with zero external
// dependencies.
package lesson

import (
	"errors"
	"time"

	"github.com/neuroclass/neuroclass-hub/internal/domain/shared"
)

// Domain errors for the lesson package.
var (
	ErrInvalidStudentID = errors.New("lesson: invalid student ID")
	ErrInvalidTaskID    = errors.New("lesson: invalid task ID")
	ErrInvalidBlockID   = errors.New("lesson: invalid block ID")
	ErrInvalidEventType = errors.New("lesson: invalid event type")

	// ErrBlockNotFound is returned when a lesson block does not exist.
	ErrBlockNotFound = shared.NewDomainError("lesson", "GetBlock", shared.ErrNotFound, "lesson block not found")

	// ErrStudentNotFound is returned when a student does not exist.
	ErrStudentNotFound = shared.NewDomainError("lesson", "GetStudent", shared.ErrNotFound, "student not found")

	// ErrProfileNotFound is returned when a student has no neuro-profile.
	// Finishing a block requires one, so the pipeline treats this as an
	// invalid state rather than a plain lookup miss.
	ErrProfileNotFound = shared.NewDomainError("lesson", "GetProfile", shared.ErrInvalidState, "neuro profile not found")

	// ErrNoEvents is returned when a block is finished with no recorded events.
	ErrNoEvents = shared.NewDomainError("lesson", "Finish", shared.ErrInvalidState, "no events recorded for block")

	// ErrBlockAlreadyFinished is returned on a repeated finish of the same
	// block. A block's index is written exactly once.
	ErrBlockAlreadyFinished = shared.NewDomainError("lesson", "Finish", shared.ErrAlreadyProcessed, "lesson block already finished")

	// ErrInvalidProcessingSpeed is returned when a profile carries a
	// non-positive processing speed. Such profile data is invalid input,
	// never a silent fallback.
	ErrInvalidProcessingSpeed = shared.NewDomainError("lesson", "Validate", shared.ErrValueOutOfRange, "processing speed must be positive")
)

// StudentID represents a unique identifier for a student.
type StudentID string

// IsValid checks if the student ID is valid.
func (s StudentID) IsValid() bool {
	return s != ""
}

// String returns the string representation of StudentID.
func (s StudentID) String() string {
	return string(s)
}

// TaskID represents a unique identifier for a task.
type TaskID string

// IsValid checks if the task ID is valid.
func (t TaskID) IsValid() bool {
	return t != ""
}

// String returns the string representation of TaskID.
func (t TaskID) String() string {
	return string(t)
}

// BlockID represents a unique identifier for a lesson block.
type BlockID string

// IsValid checks if the block ID is valid.
func (b BlockID) IsValid() bool {
	return b != ""
}

// String returns the string representation of BlockID.
func (b BlockID) String() string {
	return string(b)
}

// Student is a registered learner.
type Student struct {
	ID       StudentID
	FullName string
}

// NewStudent creates a new student.
func NewStudent(id StudentID, fullName string) (*Student, error) {
	if !id.IsValid() {
		return nil, ErrInvalidStudentID
	}
	if fullName == "" {
		return nil, shared.NewDomainError("lesson", "NewStudent", shared.ErrEmptyValue, "full name is required")
	}
	return &Student{ID: id, FullName: fullName}, nil
}

// NeuroProfile is the static per-student profile the scoring pipeline reads.
// All trait values except ProcessingSpeed live in [0,1]. The pipeline never
// writes profiles.
type NeuroProfile struct {
	StudentID          StudentID
	ProcessingSpeed    float64 // > 0; 1.0 is the population baseline
	SensorySensitivity float64
	WorkingMemory      float64
	SwitchCost         float64
	StimulationNeed    float64
	FatigueRate        float64
	PredictabilityNeed float64
	ProfileSource      string
}

// Validate checks the profile fields the scoring pipeline depends on.
func (p *NeuroProfile) Validate() error {
	if !p.StudentID.IsValid() {
		return ErrInvalidStudentID
	}
	if p.ProcessingSpeed <= 0 {
		return ErrInvalidProcessingSpeed
	}
	if p.SensorySensitivity < 0 || p.SensorySensitivity > 1 {
		return shared.NewDomainError("lesson", "Validate", shared.ErrValueOutOfRange, "sensory sensitivity must be in [0,1]")
	}
	return nil
}

// EventType classifies a task event.
type EventType string

const (
	// EventAnswer is an answered task; IsCorrect says whether it was right.
	EventAnswer EventType = "answer"

	// EventSkip is a skipped task.
	EventSkip EventType = "skip"
)

// IsValid checks if the event type is one the aggregator recognizes.
// Unknown types are still stored; they simply count toward totals only.
func (t EventType) IsValid() bool {
	return t != ""
}

// TaskEvent is one atomic student action during a lesson block.
// Immutable once created.
type TaskEvent struct {
	ID        string
	StudentID StudentID
	TaskID    TaskID
	BlockID   BlockID
	Type      EventType
	IsCorrect *bool // set only for answer events
	CreatedAt time.Time
}

// NewTaskEvent creates a new task event.
func NewTaskEvent(id string, studentID StudentID, taskID TaskID, blockID BlockID, eventType EventType, isCorrect *bool, createdAt time.Time) (*TaskEvent, error) {
	if id == "" {
		return nil, shared.NewDomainError("lesson", "NewTaskEvent", shared.ErrInvalidID, "event ID is required")
	}
	if !studentID.IsValid() {
		return nil, ErrInvalidStudentID
	}
	if !taskID.IsValid() {
		return nil, ErrInvalidTaskID
	}
	if !blockID.IsValid() {
		return nil, ErrInvalidBlockID
	}
	if !eventType.IsValid() {
		return nil, ErrInvalidEventType
	}
	return &TaskEvent{
		ID:        id,
		StudentID: studentID,
		TaskID:    taskID,
		BlockID:   blockID,
		Type:      eventType,
		IsCorrect: isCorrect,
		CreatedAt: createdAt,
	}, nil
}

// IsCorrectAnswer reports whether this is an answer event marked correct.
func (e *TaskEvent) IsCorrectAnswer() bool {
	return e.Type == EventAnswer && e.IsCorrect != nil && *e.IsCorrect
}

// LessonBlock is one bounded tutoring interaction for a student, from start
// to finish.
type LessonBlock struct {
	ID         BlockID
	StudentID  StudentID
	StartedAt  time.Time
	FinishedAt *time.Time // nil while the block is running
}

// NewLessonBlock creates a new running lesson block.
func NewLessonBlock(id BlockID, studentID StudentID, startedAt time.Time) (*LessonBlock, error) {
	if !id.IsValid() {
		return nil, ErrInvalidBlockID
	}
	if !studentID.IsValid() {
		return nil, ErrInvalidStudentID
	}
	return &LessonBlock{
		ID:        id,
		StudentID: studentID,
		StartedAt: startedAt,
	}, nil
}

// IsFinished reports whether the block has been finished.
func (b *LessonBlock) IsFinished() bool {
	return b.FinishedAt != nil
}

// Finish stamps the block's finish time. It can happen exactly once.
func (b *LessonBlock) Finish(finishedAt time.Time) error {
	if b.IsFinished() {
		return ErrBlockAlreadyFinished
	}
	if finishedAt.Before(b.StartedAt) {
		return shared.NewDomainError("lesson", "Finish", shared.ErrInvalidInput, "finish time cannot be before start time")
	}
	b.FinishedAt = &finishedAt
	return nil
}

// BlockIndex holds the computed indices for a finished block.
// At most one exists per block, written once at finish time.
type BlockIndex struct {
	BlockID        BlockID
	OverloadIndex  float64
	ReadinessIndex float64
	CreatedAt      time.Time
}

// NewBlockIndex creates a block index record. Both indices must already be
// clamped to [0,1] by the calculator.
func NewBlockIndex(blockID BlockID, overload, readiness float64, createdAt time.Time) (*BlockIndex, error) {
	if !blockID.IsValid() {
		return nil, ErrInvalidBlockID
	}
	if overload < 0 || overload > 1 {
		return nil, shared.NewDomainError("lesson", "NewBlockIndex", shared.ErrValueOutOfRange, "overload index must be in [0,1]")
	}
	if readiness < 0 || readiness > 1 {
		return nil, shared.NewDomainError("lesson", "NewBlockIndex", shared.ErrValueOutOfRange, "readiness index must be in [0,1]")
	}
	return &BlockIndex{
		BlockID:        blockID,
		OverloadIndex:  overload,
		ReadinessIndex: readiness,
		CreatedAt:      createdAt,
	}, nil
}
