package models

import (
	"time"

	"gorm.io/datatypes"
)

// TelegramConfig stores the bot credentials and basic settings
type TelegramConfig struct {
	ID        int64                       `gorm:"primaryKey" json:"id"`
	IsEnabled bool                        `json:"is_enabled"`
	BotToken  string                      `json:"bot_token"`
	ChatID    string                      `json:"chat_id"`
	Kinds     datatypes.JSONSlice[string] `json:"kinds"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// TelegramConfigRequest is used when updating the configuration
type TelegramConfigRequest struct {
	IsEnabled bool     `json:"is_enabled"`
	BotToken  string   `json:"bot_token" binding:"required"`
	ChatID    string   `json:"chat_id" binding:"required"`
	Kinds     []string `json:"kinds" binding:"omitempty,dive,oneof=contact demo service"`
}

// NotificationFilters decides which inquiries are forwarded to the admin chat
type NotificationFilters struct {
	Kinds         []InquiryKind `json:"kinds"`
	SkipNoMessage bool          `json:"skip_no_message"`
}

// Filters returns the notification filters stored with the configuration
func (c *TelegramConfig) Filters() *NotificationFilters {
	if c == nil || len(c.Kinds) == 0 {
		return nil
	}
	f := &NotificationFilters{}
	for _, k := range c.Kinds {
		f.Kinds = append(f.Kinds, InquiryKind(k))
	}
	return f
}

// IsInquiryAllowed checks if an inquiry matches the filter criteria
func (f *NotificationFilters) IsInquiryAllowed(inquiry *Inquiry) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if len(f.Kinds) > 0 {
		allowed := false
		for _, kind := range f.Kinds {
			if kind == inquiry.Kind {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if f.SkipNoMessage && inquiry.Message == "" {
		return false
	}

	return true
}
