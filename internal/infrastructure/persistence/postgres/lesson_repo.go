package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/neuroclass/neuroclass-hub/internal/domain/lesson"
)

// LessonRepository is the PostgreSQL implementation of lesson.Repository.
type LessonRepository struct {
	conn *Connection
}

// NewLessonRepository creates a new LessonRepository.
func NewLessonRepository(conn *Connection) *LessonRepository {
	return &LessonRepository{conn: conn}
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// CreateStudent persists a new student.
func (r *LessonRepository) CreateStudent(ctx context.Context, s *lesson.Student) error {
	query := `
		INSERT INTO students (id, full_name)
		VALUES ($1, $2)
	`
	if _, err := r.conn.Exec(ctx, query, s.ID.String(), s.FullName); err != nil {
		return fmt.Errorf("postgres: create student: %w", err)
	}
	return nil
}

// GetStudent returns a student by ID.
func (r *LessonRepository) GetStudent(ctx context.Context, id lesson.StudentID) (*lesson.Student, error) {
	query := `
		SELECT id, full_name
		FROM students
		WHERE id = $1
	`
	var s lesson.Student
	err := r.conn.QueryRow(ctx, query, id.String()).Scan(&s.ID, &s.FullName)
	if err != nil {
		if IsNoRows(err) {
			return nil, lesson.ErrStudentNotFound
		}
		return nil, fmt.Errorf("postgres: get student: %w", err)
	}
	return &s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// NEURO PROFILES
// ══════════════════════════════════════════════════════════════════════════════

// SaveProfile creates or replaces a student's neuro-profile.
func (r *LessonRepository) SaveProfile(ctx context.Context, p *lesson.NeuroProfile) error {
	query := `
		INSERT INTO neuro_profiles (
			student_id, processing_speed, sensory_sensitivity, working_memory,
			switch_cost, stimulation_need, fatigue_rate, predictability_need,
			profile_source, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (student_id) DO UPDATE SET
			processing_speed    = EXCLUDED.processing_speed,
			sensory_sensitivity = EXCLUDED.sensory_sensitivity,
			working_memory      = EXCLUDED.working_memory,
			switch_cost         = EXCLUDED.switch_cost,
			stimulation_need    = EXCLUDED.stimulation_need,
			fatigue_rate        = EXCLUDED.fatigue_rate,
			predictability_need = EXCLUDED.predictability_need,
			profile_source      = EXCLUDED.profile_source,
			updated_at          = NOW()
	`
	_, err := r.conn.Exec(ctx, query,
		p.StudentID.String(),
		p.ProcessingSpeed,
		p.SensorySensitivity,
		p.WorkingMemory,
		p.SwitchCost,
		p.StimulationNeed,
		p.FatigueRate,
		p.PredictabilityNeed,
		p.ProfileSource,
	)
	if err != nil {
		return fmt.Errorf("postgres: save profile: %w", err)
	}
	return nil
}

// GetProfile returns the neuro-profile for a student.
func (r *LessonRepository) GetProfile(ctx context.Context, studentID lesson.StudentID) (*lesson.NeuroProfile, error) {
	query := `
		SELECT student_id, processing_speed, sensory_sensitivity, working_memory,
		       switch_cost, stimulation_need, fatigue_rate, predictability_need,
		       profile_source
		FROM neuro_profiles
		WHERE student_id = $1
	`
	var p lesson.NeuroProfile
	err := r.conn.QueryRow(ctx, query, studentID.String()).Scan(
		&p.StudentID,
		&p.ProcessingSpeed,
		&p.SensorySensitivity,
		&p.WorkingMemory,
		&p.SwitchCost,
		&p.StimulationNeed,
		&p.FatigueRate,
		&p.PredictabilityNeed,
		&p.ProfileSource,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, lesson.ErrProfileNotFound
		}
		return nil, fmt.Errorf("postgres: get profile: %w", err)
	}
	return &p, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LESSON BLOCKS
// ══════════════════════════════════════════════════════════════════════════════

// CreateBlock persists a new running lesson block.
func (r *LessonRepository) CreateBlock(ctx context.Context, b *lesson.LessonBlock) error {
	query := `
		INSERT INTO lesson_blocks (id, student_id, started_at, finished_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.conn.Exec(ctx, query, b.ID.String(), b.StudentID.String(), b.StartedAt, b.FinishedAt)
	if err != nil {
		return fmt.Errorf("postgres: create block: %w", err)
	}
	return nil
}

// GetBlock returns a lesson block by ID.
func (r *LessonRepository) GetBlock(ctx context.Context, id lesson.BlockID) (*lesson.LessonBlock, error) {
	query := `
		SELECT id, student_id, started_at, finished_at
		FROM lesson_blocks
		WHERE id = $1
	`
	return r.scanBlock(r.conn.QueryRow(ctx, query, id.String()))
}

// GetLastBlock returns the most recently started block for a student.
func (r *LessonRepository) GetLastBlock(ctx context.Context, studentID lesson.StudentID) (*lesson.LessonBlock, error) {
	query := `
		SELECT id, student_id, started_at, finished_at
		FROM lesson_blocks
		WHERE student_id = $1
		ORDER BY started_at DESC
		LIMIT 1
	`
	return r.scanBlock(r.conn.QueryRow(ctx, query, studentID.String()))
}

func (r *LessonRepository) scanBlock(row pgx.Row) (*lesson.LessonBlock, error) {
	var b lesson.LessonBlock
	err := row.Scan(&b.ID, &b.StudentID, &b.StartedAt, &b.FinishedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, lesson.ErrBlockNotFound
		}
		return nil, fmt.Errorf("postgres: scan block: %w", err)
	}
	return &b, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TASK EVENTS
// ══════════════════════════════════════════════════════════════════════════════

// InsertEvent persists a task event.
func (r *LessonRepository) InsertEvent(ctx context.Context, e *lesson.TaskEvent) error {
	query := `
		INSERT INTO task_events (id, student_id, task_id, block_id, event_type, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.conn.Exec(ctx, query,
		e.ID,
		e.StudentID.String(),
		e.TaskID.String(),
		e.BlockID.String(),
		string(e.Type),
		e.IsCorrect,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert event: %w", err)
	}
	return nil
}

// ListEvents returns all task events for a block ordered by creation time.
func (r *LessonRepository) ListEvents(ctx context.Context, blockID lesson.BlockID) ([]*lesson.TaskEvent, error) {
	query := `
		SELECT id, student_id, task_id, block_id, event_type, is_correct, created_at
		FROM task_events
		WHERE block_id = $1
		ORDER BY created_at
	`
	rows, err := r.conn.Query(ctx, query, blockID.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	events := make([]*lesson.TaskEvent, 0)
	for rows.Next() {
		var e lesson.TaskEvent
		if err := rows.Scan(&e.ID, &e.StudentID, &e.TaskID, &e.BlockID, &e.Type, &e.IsCorrect, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// ══════════════════════════════════════════════════════════════════════════════
// BLOCK INDICES
// ══════════════════════════════════════════════════════════════════════════════

// GetBlockIndex returns the computed index for a block, if any.
func (r *LessonRepository) GetBlockIndex(ctx context.Context, blockID lesson.BlockID) (*lesson.BlockIndex, error) {
	query := `
		SELECT block_id, overload_index, readiness_index, created_at
		FROM block_indices
		WHERE block_id = $1
	`
	var idx lesson.BlockIndex
	err := r.conn.QueryRow(ctx, query, blockID.String()).Scan(
		&idx.BlockID, &idx.OverloadIndex, &idx.ReadinessIndex, &idx.CreatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, lesson.ErrBlockNotFound
		}
		return nil, fmt.Errorf("postgres: get block index: %w", err)
	}
	return &idx, nil
}

// FinishBlock atomically inserts the block index and stamps the block's
// finished_at in one transaction. The primary key on block_indices and the
// finished_at guard make a concurrent double finish lose cleanly.
func (r *LessonRepository) FinishBlock(ctx context.Context, idx *lesson.BlockIndex, finishedAt time.Time) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		insertIndex := `
			INSERT INTO block_indices (block_id, overload_index, readiness_index, created_at)
			VALUES ($1, $2, $3, $4)
		`
		_, err := tx.Exec(ctx, insertIndex,
			idx.BlockID.String(), idx.OverloadIndex, idx.ReadinessIndex, idx.CreatedAt)
		if err != nil {
			if IsUniqueViolation(err) {
				return lesson.ErrBlockAlreadyFinished
			}
			return fmt.Errorf("postgres: insert block index: %w", err)
		}

		stamp := `
			UPDATE lesson_blocks
			SET finished_at = $2
			WHERE id = $1 AND finished_at IS NULL
		`
		tag, err := tx.Exec(ctx, stamp, idx.BlockID.String(), finishedAt)
		if err != nil {
			return fmt.Errorf("postgres: stamp finished_at: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return lesson.ErrBlockAlreadyFinished
		}
		return nil
	})
}

// ListHistory returns every finished block of a student with its index,
// ordered by block start time.
func (r *LessonRepository) ListHistory(ctx context.Context, studentID lesson.StudentID) ([]lesson.HistoryEntry, error) {
	query := `
		SELECT b.id, b.student_id, b.started_at, b.finished_at,
		       i.block_id, i.overload_index, i.readiness_index, i.created_at
		FROM lesson_blocks b
		JOIN block_indices i ON i.block_id = b.id
		WHERE b.student_id = $1
		ORDER BY b.started_at
	`
	rows, err := r.conn.Query(ctx, query, studentID.String())
	if err != nil {
		return nil, fmt.Errorf("postgres: list history: %w", err)
	}
	defer rows.Close()

	entries := make([]lesson.HistoryEntry, 0)
	for rows.Next() {
		var b lesson.LessonBlock
		var idx lesson.BlockIndex
		err := rows.Scan(
			&b.ID, &b.StudentID, &b.StartedAt, &b.FinishedAt,
			&idx.BlockID, &idx.OverloadIndex, &idx.ReadinessIndex, &idx.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan history row: %w", err)
		}
		entries = append(entries, lesson.HistoryEntry{Block: &b, Index: &idx})
	}
	return entries, rows.Err()
}
