package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the schema if it does not exist. Statements are
// idempotent and run in dependency order.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS regions (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		city TEXT,
		province TEXT,
		postal_code TEXT,
		phone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE TABLE IF NOT EXISTS local_offices (
		id BIGSERIAL PRIMARY KEY,
		region_id BIGINT NOT NULL REFERENCES regions(id),
		name TEXT NOT NULL,
		address TEXT,
		city TEXT,
		province TEXT,
		postal_code TEXT,
		phone TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_local_offices_region
		ON local_offices(region_id)`,

	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		employee_no TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		title_prefix TEXT,
		title_suffix TEXT,
		rank_grade TEXT,
		position TEXT,
		local_office_id BIGINT REFERENCES local_offices(id),
		region_id BIGINT REFERENCES regions(id),
		employment_status TEXT NOT NULL DEFAULT 'active',
		email TEXT,
		phone TEXT,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		role TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by BIGINT,
		updated_by BIGINT,
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_local_office
		ON users(local_office_id)`,

	// local_office_id and region_id are denormalized from the assigned
	// officer at write time so authorization never needs a join.
	`CREATE TABLE IF NOT EXISTS clients (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		gender TEXT,
		birth_place TEXT,
		birth_date DATE,
		address TEXT,
		phone TEXT,
		national_id TEXT,
		case_number TEXT,
		supervision_category TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		assigned_officer_id BIGINT NOT NULL REFERENCES users(id),
		local_office_id BIGINT NOT NULL REFERENCES local_offices(id),
		region_id BIGINT REFERENCES regions(id),
		online_access BOOLEAN NOT NULL DEFAULT FALSE,
		pin_hash TEXT,
		photo_path TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		created_by BIGINT,
		updated_by BIGINT,
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_clients_assigned_officer
		ON clients(assigned_officer_id)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_local_office
		ON clients(local_office_id)`,
	`CREATE INDEX IF NOT EXISTS idx_clients_region
		ON clients(region_id)`,

	`CREATE TABLE IF NOT EXISTS intakes (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id),
		intake_date DATE,
		case_number TEXT,
		decision_number TEXT,
		supervision_start DATE,
		supervision_end DATE,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_intakes_client
		ON intakes(client_id)`,

	`CREATE TABLE IF NOT EXISTS legal_histories (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id),
		offense TEXT,
		verdict TEXT,
		institution TEXT,
		decision_date DATE,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_legal_histories_client
		ON legal_histories(client_id)`,

	`CREATE TABLE IF NOT EXISTS reintegration_services (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id),
		program TEXT,
		provider TEXT,
		start_date DATE,
		end_date DATE,
		outcome TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_reintegration_services_client
		ON reintegration_services(client_id)`,

	`CREATE TABLE IF NOT EXISTS legal_processes (
		id BIGSERIAL PRIMARY KEY,
		intake_id BIGINT NOT NULL REFERENCES intakes(id),
		stage TEXT,
		court TEXT,
		hearing_date DATE,
		outcome TEXT,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_legal_processes_intake
		ON legal_processes(intake_id)`,

	`CREATE TABLE IF NOT EXISTS check_ins (
		id BIGSERIAL PRIMARY KEY,
		client_id BIGINT NOT NULL REFERENCES clients(id),
		method TEXT NOT NULL,
		checked_in_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		photo_path TEXT,
		latitude NUMERIC(9,6),
		longitude NUMERIC(9,6),
		notes TEXT,
		recorded_by BIGINT REFERENCES users(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		deleted_at TIMESTAMPTZ
	)`,

	`CREATE INDEX IF NOT EXISTS idx_check_ins_client
		ON check_ins(client_id)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id BIGSERIAL PRIMARY KEY,
		occurred_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		actor_id BIGINT,
		actor_role TEXT,
		action TEXT NOT NULL,
		resource_type TEXT,
		resource_id BIGINT,
		outcome TEXT NOT NULL,
		detail TEXT,
		request_id TEXT
	)`,

	`CREATE INDEX IF NOT EXISTS idx_audit_logs_occurred_at
		ON audit_logs(occurred_at)`,
}
