package services

import (
	"testing"

	"boekhouden/internal/models"
	"boekhouden/internal/testutil"
)

func TestAuditLog(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	svc.Log("web", AuditAssignCategory, "transaction", "2025/002-0014", "127.0.0.1", map[string]any{
		"category": "telefonie",
	})
	svc.Log("cli", AuditMatchRun, "match", "", "", nil)

	var entries []models.AuditLog
	testutil.AssertNoError(t, db.Order("created_at ASC, id ASC").Find(&entries).Error)
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Action != AuditAssignCategory || first.ResourceID != "2025/002-0014" || first.Changes != `{"category":"telefonie"}` {
		t.Errorf("unexpected entry %+v", first)
	}
	if entries[1].Changes != "" {
		t.Errorf("expected no changes, got %q", entries[1].Changes)
	}
}
