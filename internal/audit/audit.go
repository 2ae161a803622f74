package audit

import (
	"time"
)

const systemUser = "system"

// AuditInfo records who created and last touched a stored breakdown record.
type AuditInfo struct {
	CreatedBy string    `json:"createdBy" yaml:"createdBy"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
	UpdatedBy string    `json:"updatedBy,omitempty" yaml:"updatedBy,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// NewAuditInfo returns an AuditInfo with the current timestamp and creator.
// An empty creator is recorded as "system".
func NewAuditInfo(creator string) *AuditInfo {
	c := creator
	if c == "" {
		c = systemUser
	}

	return &AuditInfo{
		CreatedBy: c,
		CreatedAt: time.Now().UTC(),
	}
}

// Touch stamps an update. A nil receiver is left alone so callers can touch
// records loaded without audit columns.
func (a *AuditInfo) Touch(updatedBy string) {
	if a == nil {
		return
	}
	if updatedBy == "" {
		updatedBy = systemUser
	}
	a.UpdatedBy = updatedBy
	a.UpdatedAt = time.Now().UTC()
}
