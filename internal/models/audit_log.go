package models

// AuditLog records manual decisions (assignments, match resolutions, rule
// edits) so that every category and match can be traced to its origin.
type AuditLog struct {
	Base
	Actor        string `gorm:"not null" json:"actor"`
	Action       string `gorm:"not null;index" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"index" json:"resource_id"`
	IPAddress    string `json:"ip_address,omitempty"`
	Changes      string `gorm:"type:text" json:"changes,omitempty"`
}
