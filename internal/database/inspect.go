package database

import (
	"context"
	"errors"
	"fmt"

	"chapel/internal/config"

	"gorm.io/gorm"
)

// ErrResetRefused is returned when a schema reset targets a production database.
var ErrResetRefused = errors.New("schema reset refused in production")

// Column is one row of information_schema.columns.
type Column struct {
	Name     string `gorm:"column:column_name"`
	DataType string `gorm:"column:data_type"`
	Nullable string `gorm:"column:is_nullable"`
}

// Constraint is a constraint declared on a public table.
type Constraint struct {
	Table      string `gorm:"column:relname"`
	Name       string `gorm:"column:conname"`
	Definition string `gorm:"column:def"`
}

// TableInfo describes a table for operators debugging the schema.
type TableInfo struct {
	Name        string
	Columns     []Column
	Constraints []Constraint
	Rows        int64
}

// ListTables returns the tables of the public schema in name order.
func ListTables(ctx context.Context, db *gorm.DB) ([]string, error) {
	var tables []string
	err := db.WithContext(ctx).Raw(
		"SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name",
	).Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// InspectTable collects columns, constraints and the row count of a public table.
func InspectTable(ctx context.Context, db *gorm.DB, table string) (*TableInfo, error) {
	tx := db.WithContext(ctx)
	info := &TableInfo{Name: table}

	if err := tx.Raw(
		"SELECT column_name, data_type, is_nullable FROM information_schema.columns WHERE table_schema = 'public' AND table_name = ? ORDER BY ordinal_position",
		table,
	).Scan(&info.Columns).Error; err != nil {
		return nil, fmt.Errorf("columns of %s: %w", table, err)
	}
	if len(info.Columns) == 0 {
		return nil, fmt.Errorf("table %q: %w", table, gorm.ErrRecordNotFound)
	}

	if err := tx.Raw(
		`SELECT r.relname, c.conname, pg_get_constraintdef(c.oid) AS def
		FROM pg_constraint c
		JOIN pg_class r ON c.conrelid = r.oid
		JOIN pg_namespace n ON n.oid = r.relnamespace
		WHERE n.nspname = 'public' AND r.relname = ?
		ORDER BY c.conname`,
		table,
	).Scan(&info.Constraints).Error; err != nil {
		return nil, fmt.Errorf("constraints of %s: %w", table, err)
	}

	// table was checked against information_schema above
	if err := tx.Table(table).Count(&info.Rows).Error; err != nil {
		return nil, fmt.Errorf("count %s: %w", table, err)
	}
	return info, nil
}

// ResetSchema drops and recreates the public schema. Everything is lost.
func ResetSchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	if cfg.IsProduction() {
		return ErrResetRefused
	}
	tx := db.WithContext(ctx)
	if err := tx.Exec("DROP SCHEMA public CASCADE").Error; err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	if err := tx.Exec("CREATE SCHEMA public").Error; err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := tx.Exec("GRANT ALL ON SCHEMA public TO public").Error; err != nil {
		return fmt.Errorf("grant schema: %w", err)
	}
	return nil
}
