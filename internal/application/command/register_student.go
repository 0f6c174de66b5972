package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER STUDENT / SAVE PROFILE COMMANDS
// Students and their neuro-profiles are reference data for the scoring
// pipeline; the profile is written here and read-only everywhere else.
// ══════════════════════════════════════════════════════════════════════════════

// RegisterStudentCommand contains the data to register a student.
type RegisterStudentCommand struct {
	// FullName is the student's display name.
	FullName string
}

// Validate validates the command.
func (c RegisterStudentCommand) Validate() error {
	if c.FullName == "" {
		return errors.New("register_student: full_name is required")
	}
	return nil
}

// RegisterStudentResult contains the result of registering a student.
type RegisterStudentResult struct {
	StudentID string
	FullName  string
}

// RegisterStudentHandler handles the RegisterStudentCommand.
type RegisterStudentHandler struct {
	repo lesson.Repository
}

// NewRegisterStudentHandler creates a new RegisterStudentHandler.
func NewRegisterStudentHandler(repo lesson.Repository) *RegisterStudentHandler {
	return &RegisterStudentHandler{repo: repo}
}

// Handle executes the register student command.
func (h *RegisterStudentHandler) Handle(ctx context.Context, cmd RegisterStudentCommand) (*RegisterStudentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("register_student: validation failed: %w", err)
	}

	student, err := lesson.NewStudent(lesson.StudentID(uuid.NewString()), cmd.FullName)
	if err != nil {
		return nil, err
	}

	if err := h.repo.CreateStudent(ctx, student); err != nil {
		return nil, fmt.Errorf("register_student: failed to create student: %w", err)
	}

	return &RegisterStudentResult{
		StudentID: student.ID.String(),
		FullName:  student.FullName,
	}, nil
}

// SaveProfileCommand contains the data to create or replace a profile.
type SaveProfileCommand struct {
	StudentID          string
	ProcessingSpeed    float64
	SensorySensitivity float64
	WorkingMemory      float64
	SwitchCost         float64
	StimulationNeed    float64
	FatigueRate        float64
	PredictabilityNeed float64
	ProfileSource      string
}

// Validate validates the command.
func (c SaveProfileCommand) Validate() error {
	if c.StudentID == "" {
		return errors.New("save_profile: student_id is required")
	}
	return nil
}

// SaveProfileHandler handles the SaveProfileCommand.
type SaveProfileHandler struct {
	repo lesson.Repository
}

// NewSaveProfileHandler creates a new SaveProfileHandler.
func NewSaveProfileHandler(repo lesson.Repository) *SaveProfileHandler {
	return &SaveProfileHandler{repo: repo}
}

// Handle executes the save profile command.
func (h *SaveProfileHandler) Handle(ctx context.Context, cmd SaveProfileCommand) (*lesson.NeuroProfile, error) {
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("save_profile: validation failed: %w", err)
	}

	if _, err := h.repo.GetStudent(ctx, lesson.StudentID(cmd.StudentID)); err != nil {
		return nil, err
	}

	profile := &lesson.NeuroProfile{
		StudentID:          lesson.StudentID(cmd.StudentID),
		ProcessingSpeed:    cmd.ProcessingSpeed,
		SensorySensitivity: cmd.SensorySensitivity,
		WorkingMemory:      cmd.WorkingMemory,
		SwitchCost:         cmd.SwitchCost,
		StimulationNeed:    cmd.StimulationNeed,
		FatigueRate:        cmd.FatigueRate,
		PredictabilityNeed: cmd.PredictabilityNeed,
		ProfileSource:      cmd.ProfileSource,
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	if err := h.repo.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save_profile: failed to save profile: %w", err)
	}

	return profile, nil
}
