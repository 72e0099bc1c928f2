// Package migrate runs versioned data migrations around gorm's
// AutoMigrate, recording every applied version so a migration runs at
// most once per database.
package migrate

import (
	"fmt"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Migration struct {
	Version int
	Up      func(db *gorm.DB) error
}

type MigrationRecordStatus int

const (
	MigrationRecordStatusSuccess MigrationRecordStatus = iota + 1
	MigrationRecordStatusFailed
)

type MigrationRecord struct {
	Version int `gorm:"primaryKey"`
	Status  MigrationRecordStatus
}

var (
	beforeAuto []Migration
	afterAuto  []Migration
)

// RegisterBeforeAutoMigration schedules a migration to run before
// AutoMigrate, for schema repairs AutoMigrate would trip over.
func RegisterBeforeAutoMigration(m Migration) {
	beforeAuto = append(beforeAuto, m)
}

// RegisterAfterAutoMigration schedules a data migration to run once
// the schema is current.
func RegisterAfterAutoMigration(m Migration) {
	afterAuto = append(afterAuto, m)
}

func BeforeAutoMigrate(db *gorm.DB) error {
	err := apply(db, beforeAuto)
	beforeAuto = nil
	return err
}

func AfterAutoMigrate(db *gorm.DB) error {
	err := apply(db, afterAuto)
	afterAuto = nil
	return err
}

func apply(db *gorm.DB, migrations []Migration) error {
	if len(migrations) == 0 {
		return nil
	}
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	// The record table may not exist yet in the before-automigrate
	// phase.
	if !db.Migrator().HasTable(&MigrationRecord{}) {
		if err := db.AutoMigrate(&MigrationRecord{}); err != nil {
			return fmt.Errorf("create migration record table: %w", err)
		}
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	versions := make([]int, 0, len(migrations))
	seen := make(map[int]struct{}, len(migrations))
	for _, m := range migrations {
		if m.Up == nil {
			return fmt.Errorf("migration %d has no Up", m.Version)
		}
		if _, dup := seen[m.Version]; dup {
			return fmt.Errorf("duplicate migration version %d", m.Version)
		}
		seen[m.Version] = struct{}{}
		versions = append(versions, m.Version)
	}

	var applied []MigrationRecord
	if err := db.Where("version IN ?", versions).Find(&applied).Error; err != nil {
		return fmt.Errorf("load migration records: %w", err)
	}
	done := make(map[int]bool, len(applied))
	for _, r := range applied {
		done[r.Version] = r.Status == MigrationRecordStatusSuccess
	}

	for _, m := range migrations {
		if done[m.Version] {
			continue
		}
		if err := m.Up(db); err != nil {
			record(db, m.Version, MigrationRecordStatusFailed)
			return fmt.Errorf("migration %d: %w", m.Version, err)
		}
		if err := record(db, m.Version, MigrationRecordStatusSuccess); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}
	return nil
}

func record(db *gorm.DB, version int, status MigrationRecordStatus) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "version"}},
		DoUpdates: clause.AssignmentColumns([]string{"status"}),
	}).Create(&MigrationRecord{Version: version, Status: status}).Error
}
