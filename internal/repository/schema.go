package repository

import _ "embed"

// Schema is the idempotent DDL applied by cmd/apply-migration.
//
//go:embed schema.sql
var Schema string
