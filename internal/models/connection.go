package models

import "time"

// OAuthConnection holds the tokens for the single QuickBooks connection.
// At most one row per provider exists at any time: code exchange replaces
// any prior row, refresh mutates it in place, disconnect deletes it.
type OAuthConnection struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Provider     string    `gorm:"column:provider;index"`
	AccessToken  string    `gorm:"column:access_token;type:text"`
	RefreshToken string    `gorm:"column:refresh_token;type:text"`
	ExpiresAt    time.Time `gorm:"column:expires_at"`
	RealmID      string    `gorm:"column:realm_id"` // QuickBooks company ID
	Metadata     JSONB     `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for GORM
func (OAuthConnection) TableName() string {
	return "oauth_connection"
}
