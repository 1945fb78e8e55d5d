package database

import (
	"context"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// UserSettings holds all settings specific to a user.
type UserSettings struct {
	gorm.Model
	UserID        uint `gorm:"uniqueIndex;not null"`
	EmailSettings EmailSettings
}

// EmailSettings holds the email configuration for a user.
type EmailSettings struct {
	gorm.Model
	Enabled        bool
	Email          string `gorm:"not null;unique"`
	UserSettingsID uint   `gorm:"uniqueIndex;not null"`
}

// GetUserSettings retrieves the settings for a user, creating an empty record on first access.
func (c *Client) GetUserSettings(ctx context.Context, userID uint) (*UserSettings, error) {
	var settings UserSettings
	err := c.db.WithContext(ctx).Preload("EmailSettings").Where("user_id = ?", userID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		settings = UserSettings{UserID: userID}
		if err := c.db.WithContext(ctx).Create(&settings).Error; err != nil {
			log.Error("failed to create user settings", "error", err)
			return nil, err
		}
		return &settings, nil
	} else if err != nil {
		log.Error("failed to get user settings", "error", err)
		return nil, err
	}
	return &settings, nil
}

// UpdateUserEmailSettings sets the notification email for a user.
func (c *Client) UpdateUserEmailSettings(ctx context.Context, userID uint, enabled bool, email string) error {
	settings, err := c.GetUserSettings(ctx, userID)
	if err != nil {
		return err
	}

	var emailSettings EmailSettings
	err = c.db.WithContext(ctx).Where("user_settings_id = ?", settings.ID).First(&emailSettings).Error
	if err == gorm.ErrRecordNotFound {
		emailSettings = EmailSettings{
			Enabled:        enabled,
			Email:          email,
			UserSettingsID: settings.ID,
		}
		if err := c.db.WithContext(ctx).Create(&emailSettings).Error; err != nil {
			log.Error("failed to create email settings", "error", err)
			return err
		}
		return nil
	} else if err != nil {
		log.Error("failed to get email settings", "error", err)
		return err
	}

	result := c.db.WithContext(ctx).Model(&emailSettings).Updates(map[string]any{
		"enabled": enabled,
		"email":   email,
	})
	if result.Error != nil {
		log.Error("failed to update email settings", "error", result.Error)
		return result.Error
	}
	return nil
}
