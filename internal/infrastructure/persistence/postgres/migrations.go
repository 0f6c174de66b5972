package postgres

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_students",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_lesson_blocks",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_task_events",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_block_indices",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
	id          TEXT PRIMARY KEY,
	full_name   TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS neuro_profiles (
	student_id          TEXT PRIMARY KEY REFERENCES students(id) ON DELETE CASCADE,
	processing_speed    DOUBLE PRECISION NOT NULL,
	sensory_sensitivity DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	working_memory      DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	switch_cost         DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	stimulation_need    DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	fatigue_rate        DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	predictability_need DOUBLE PRECISION NOT NULL DEFAULT 0.5,
	profile_source      TEXT NOT NULL DEFAULT 'manual',
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration001Down = `
DROP TABLE IF EXISTS neuro_profiles;
DROP TABLE IF EXISTS students;
`

const migration002Up = `
CREATE TABLE IF NOT EXISTS lesson_blocks (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	started_at  TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_lesson_blocks_student_started
	ON lesson_blocks(student_id, started_at DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS lesson_blocks;
`

const migration003Up = `
CREATE TABLE IF NOT EXISTS task_events (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL REFERENCES students(id) ON DELETE CASCADE,
	task_id     TEXT NOT NULL,
	block_id    TEXT NOT NULL REFERENCES lesson_blocks(id) ON DELETE CASCADE,
	event_type  TEXT NOT NULL,
	is_correct  BOOLEAN,
	created_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_task_events_block_created
	ON task_events(block_id, created_at);
`

const migration003Down = `
DROP TABLE IF EXISTS task_events;
`

// block_id is the primary key: the unique constraint is the database-level
// backstop for the write-once rule on indices.
const migration004Up = `
CREATE TABLE IF NOT EXISTS block_indices (
	block_id        TEXT PRIMARY KEY REFERENCES lesson_blocks(id) ON DELETE CASCADE,
	overload_index  DOUBLE PRECISION NOT NULL,
	readiness_index DOUBLE PRECISION NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

const migration004Down = `
DROP TABLE IF EXISTS block_indices;
`
