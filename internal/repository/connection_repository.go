package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/craftyard/shopsync-worker/internal/models"
	"gorm.io/gorm"
)

var ErrConnectionNotFound = errors.New("oauth connection not found")

type ConnectionRepository struct {
	db *gorm.DB
}

func NewConnectionRepository(db *gorm.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

// GetActive retrieves the most recently created connection for a provider
func (r *ConnectionRepository) GetActive(ctx context.Context, provider string) (*models.OAuthConnection, error) {
	var conn models.OAuthConnection
	result := r.db.WithContext(ctx).
		Where("provider = ?", provider).
		Order("created_at DESC").
		First(&conn)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("failed to get connection: %w", result.Error)
	}
	return &conn, nil
}

// Create inserts a new connection row
func (r *ConnectionRepository) Create(ctx context.Context, conn models.OAuthConnection) error {
	if err := r.db.WithContext(ctx).Create(&conn).Error; err != nil {
		return fmt.Errorf("failed to create connection: %w", err)
	}
	return nil
}

// UpdateTokens updates access token, refresh token, and expiry in place
func (r *ConnectionRepository) UpdateTokens(ctx context.Context, id string, accessToken, refreshToken string, expiresAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.OAuthConnection{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"access_token":  accessToken,
			"refresh_token": refreshToken,
			"expires_at":    expiresAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update tokens: %w", result.Error)
	}
	return nil
}

// DeleteByProvider removes every connection row for a provider.
// Used both on disconnect and before inserting a replacement connection,
// keeping the one-connection-per-provider invariant.
func (r *ConnectionRepository) DeleteByProvider(ctx context.Context, provider string) error {
	result := r.db.WithContext(ctx).
		Where("provider = ?", provider).
		Delete(&models.OAuthConnection{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete connection: %w", result.Error)
	}
	return nil
}
