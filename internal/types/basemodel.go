package types

import (
	"context"
	"time"
)

// BaseModel is embedded by all domain models that are persisted in the
// database. Any change here needs a matching schema migration.
type BaseModel struct {
	OrganizationID string    `db:"organization_id" json:"organization_id"`
	Status         Status    `db:"status" json:"status"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy      string    `db:"created_by" json:"created_by"`
	UpdatedBy      string    `db:"updated_by" json:"updated_by"`
}

func GetDefaultBaseModel(ctx context.Context) BaseModel {
	now := time.Now().UTC()
	return BaseModel{
		OrganizationID: GetOrganizationID(ctx),
		Status:         StatusPublished,
		CreatedAt:      now,
		UpdatedAt:      now,
		CreatedBy:      GetUserID(ctx),
		UpdatedBy:      GetUserID(ctx),
	}
}
