package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	// Rows are provisioned by the auth provider's signup trigger; id matches the token subject.
	`CREATE TABLE IF NOT EXISTS profiles (
		id UUID PRIMARY KEY,
		email VARCHAR(255) NOT NULL DEFAULT '',
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(50),
		role VARCHAR(50) NOT NULL DEFAULT 'residente',
		plan VARCHAR(20) NOT NULL DEFAULT 'basic',
		active_unit_id UUID,
		extra_capacity INTEGER NOT NULL DEFAULT 0 CHECK (extra_capacity >= 0),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS units (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		admin_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		idempotency_key VARCHAR(100),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(admin_id, idempotency_key)
	)`,

	`DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_name = 'profiles' AND constraint_name = 'profiles_active_unit_fk'
		) THEN
			ALTER TABLE profiles ADD CONSTRAINT profiles_active_unit_fk
				FOREIGN KEY (active_unit_id) REFERENCES units(id) ON DELETE SET NULL;
		END IF;
	END $$`,

	`CREATE TABLE IF NOT EXISTS unit_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		unit_id UUID NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		profile_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		role VARCHAR(50) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(unit_id, profile_id)
	)`,

	`CREATE TABLE IF NOT EXISTS invitations (
		code VARCHAR(32) PRIMARY KEY,
		unit_id UUID NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		role VARCHAR(50) NOT NULL,
		created_by UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		used_at TIMESTAMP WITH TIME ZONE,
		used_by UUID REFERENCES profiles(id) ON DELETE SET NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS tickets (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		unit_id UUID NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		created_by UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		assigned_to UUID REFERENCES profiles(id) ON DELETE SET NULL,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		source VARCHAR(20) NOT NULL DEFAULT 'form',
		status VARCHAR(20) NOT NULL DEFAULT 'open',
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS billing_events (
		provider_event_id VARCHAR(255) PRIMARY KEY,
		event_type VARCHAR(100) NOT NULL,
		received_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_units_admin_id ON units(admin_id)`,
	`CREATE INDEX IF NOT EXISTS idx_unit_members_profile_id ON unit_members(profile_id)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_unit_id ON invitations(unit_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tickets_unit_id ON tickets(unit_id)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
