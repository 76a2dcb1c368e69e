package db_test

import (
	"strings"
	"testing"

	"github.com/tej1010/spongier-backend-sub001/internal/data/db"
	"github.com/tej1010/spongier-backend-sub001/internal/data/repos/testutil"
	types "github.com/tej1010/spongier-backend-sub001/internal/domain"
)

func TestAutoMigrateCreatesUpsertIndexes(t *testing.T) {
	gdb := testutil.DB(t)
	if err := db.CheckIndexes(gdb); err != nil {
		t.Fatalf("check indexes: %v", err)
	}
	// idempotent on an already migrated schema
	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}
}

func TestCheckIndexesReportsMissingIndex(t *testing.T) {
	gdb := testutil.DB(t)
	if gdb.Dialector.Name() != "sqlite" {
		t.Skip("drops an index; only run against the per-test sqlite database")
	}
	if err := gdb.Migrator().DropIndex(&types.UserBadge{}, "idx_user_badge_key"); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	err := db.CheckIndexes(gdb)
	if err == nil || !strings.Contains(err.Error(), "idx_user_badge_key") {
		t.Fatalf("want missing idx_user_badge_key, got %v", err)
	}
}
