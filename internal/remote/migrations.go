package remote

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sectors (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS subsectors (
	id         TEXT PRIMARY KEY,
	sector_id  TEXT NOT NULL REFERENCES sectors(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS profiles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	role       TEXT NOT NULL DEFAULT 'collaborator' CHECK(role IN ('manager', 'collaborator')),
	sector_id  TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS personal_lists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	owner_id   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS activities (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	description    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending'
		CHECK(status IN ('pending', 'in_progress', 'completed', 'archived')),
	priority       TEXT NOT NULL DEFAULT 'medium'
		CHECK(priority IN ('low', 'medium', 'high')),
	due_date       DATETIME,
	estimated_time REAL,
	is_private     INTEGER NOT NULL DEFAULT 0 CHECK(is_private IN (0, 1)),
	sector_id      TEXT NOT NULL,
	subsector_id   TEXT REFERENCES subsectors(id) ON DELETE SET NULL,
	list_id        TEXT REFERENCES personal_lists(id) ON DELETE CASCADE,
	user_id        TEXT NOT NULL,
	created_by     TEXT NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at   DATETIME
);

CREATE TABLE IF NOT EXISTS subtasks (
	id              TEXT PRIMARY KEY,
	activity_id     TEXT NOT NULL REFERENCES activities(id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	description     TEXT NOT NULL DEFAULT '',
	is_completed    INTEGER NOT NULL DEFAULT 0 CHECK(is_completed IN (0, 1)),
	order_index     INTEGER NOT NULL DEFAULT 0,
	checklist_group TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_activities_sector_id ON activities(sector_id);
CREATE INDEX IF NOT EXISTS idx_activities_subsector_id ON activities(subsector_id);
CREATE INDEX IF NOT EXISTS idx_activities_list_id ON activities(list_id);
CREATE INDEX IF NOT EXISTS idx_activities_user_id ON activities(user_id);
CREATE INDEX IF NOT EXISTS idx_activities_status ON activities(status);
CREATE INDEX IF NOT EXISTS idx_activities_due_date ON activities(due_date);
CREATE INDEX IF NOT EXISTS idx_subtasks_activity_id ON subtasks(activity_id);
CREATE INDEX IF NOT EXISTS idx_lists_owner_id ON personal_lists(owner_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_activities_sector_status
	ON activities(sector_id, status);

CREATE INDEX IF NOT EXISTS idx_subtasks_activity_order
	ON subtasks(activity_id, order_index);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
