package database

type migration struct {
	name      string
	statement string
}

// Foreign keys carry no ON DELETE CASCADE: calendar deletion walks the
// dependents explicitly, and the constraints reject any out-of-order delete.
func getMigrations() []migration {
	return []migration{
		{
			name: "initial_schema",
			statement: `
				-- User directory
				CREATE TABLE IF NOT EXISTS users (
					id TEXT PRIMARY KEY,
					pseudo TEXT NOT NULL UNIQUE,
					email TEXT NOT NULL UNIQUE,
					created_at TIMESTAMP NOT NULL
				);

				-- Calendars
				CREATE TABLE IF NOT EXISTS calendars (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL CHECK (length(name) BETWEEN 1 AND 256),
					nb_owners INTEGER NOT NULL DEFAULT 0 CHECK (nb_owners >= 0),
					timeslot_preferences TEXT NOT NULL,
					sync_token TEXT,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL
				);

				-- Calendar memberships
				CREATE TABLE IF NOT EXISTS calendar_members (
					calendar_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					role TEXT NOT NULL CHECK (role IN ('admin', 'actor', 'outsider')),
					confirmed BOOLEAN NOT NULL DEFAULT 0,
					joined_at TIMESTAMP NOT NULL,
					PRIMARY KEY (calendar_id, user_id),
					FOREIGN KEY (calendar_id) REFERENCES calendars(id),
					FOREIGN KEY (user_id) REFERENCES users(id)
				);

				CREATE INDEX IF NOT EXISTS idx_calendar_members_user ON calendar_members(user_id);

				-- Events
				CREATE TABLE IF NOT EXISTS events (
					id TEXT PRIMARY KEY,
					calendar_id TEXT NOT NULL,
					name TEXT NOT NULL,
					description TEXT NOT NULL DEFAULT '',
					location TEXT NOT NULL DEFAULT '',
					type TEXT NOT NULL,
					visibility TEXT NOT NULL CHECK (visibility IN ('public', 'private')),
					start_time TIMESTAMP NOT NULL,
					end_time TIMESTAMP NOT NULL,
					created_at TIMESTAMP NOT NULL,
					updated_at TIMESTAMP NOT NULL,
					FOREIGN KEY (calendar_id) REFERENCES calendars(id)
				);

				CREATE INDEX IF NOT EXISTS idx_events_calendar ON events(calendar_id);

				-- Event attendees
				CREATE TABLE IF NOT EXISTS event_attendees (
					event_id TEXT NOT NULL,
					user_id TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'invited' CHECK (status IN ('invited', 'accepted', 'declined')),
					created_at TIMESTAMP NOT NULL,
					responded_at TIMESTAMP,
					PRIMARY KEY (event_id, user_id),
					FOREIGN KEY (event_id) REFERENCES events(id),
					FOREIGN KEY (user_id) REFERENCES users(id)
				);

				-- Groups referencing a calendar
				CREATE TABLE IF NOT EXISTS groups (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					calendar_id TEXT NOT NULL,
					created_at TIMESTAMP NOT NULL,
					FOREIGN KEY (calendar_id) REFERENCES calendars(id)
				);

				CREATE INDEX IF NOT EXISTS idx_groups_calendar ON groups(calendar_id);
			`,
		},
	}
}
