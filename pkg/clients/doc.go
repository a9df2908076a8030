// Package clients manages supervision case records and their nested
// sub-records: intakes, legal histories, reintegration services, legal
// processes, and mandatory check-ins.
//
// Every operation resolves the ownership of its target through
// pkg/authz before touching data. Client rows carry denormalized
// local_office_id and region_id columns; the service re-derives both
// from the assigned officer on every create and on any update that
// changes the assignment, so the authorization engine can rely on them
// without a join.
package clients
