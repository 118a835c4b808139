package services

import (
	"encoding/json"

	"boekhouden/internal/logger"
	"boekhouden/internal/models"

	"gorm.io/gorm"
)

// Audit actions.
const (
	AuditAssignCategory = "ASSIGN_CATEGORY"
	AuditClearCategory  = "CLEAR_CATEGORY"
	AuditCategorize     = "CATEGORIZE"
	AuditImport         = "IMPORT_STATEMENT"
	AuditMatchRun       = "MATCH_RUN"
	AuditMatchCreate    = "MATCH_CREATE"
	AuditMatchAccept    = "MATCH_ACCEPT"
	AuditMatchReject    = "MATCH_REJECT"
	AuditRuleAdd        = "RULE_ADD"
	AuditRuleDisable    = "RULE_DISABLE"
	AuditRuleBootstrap  = "RULE_BOOTSTRAP"
	AuditAssetAdd       = "ASSET_ADD"
	AuditAssetDispose   = "ASSET_DISPOSE"
	AuditAssetImport    = "ASSET_IMPORT"
)

// auditService handles audit log recording.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Errors are logged but never propagate
// to avoid disrupting the main operation.
func (s *auditService) Log(actor, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	var changesJSON string
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", action)
			changesJSON = "{}"
		} else {
			changesJSON = string(data)
		}
	}

	entry := &models.AuditLog{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      changesJSON,
	}

	if err := s.db.Create(entry).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"actor", actor,
			"action", action,
			"resource_type", resourceType,
			"resource_id", resourceID,
		)
	}
}
