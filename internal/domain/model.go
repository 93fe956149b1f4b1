package domain

import (
	"time"

	"gorm.io/gorm"
)

// GiftRecord is a single accepted gift event.
type GiftRecord struct {
	ID         string    `json:"id"`
	RoomID     string    `json:"roomId"`
	SenderID   string    `json:"senderId"`
	SenderName string    `json:"senderName"`
	GiftType   string    `json:"giftType"`
	GiftCount  int       `json:"giftCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// GiftRecordModel is the GORM model for the gifts table.
type GiftRecordModel struct {
	ID         string `gorm:"type:varchar(36);primaryKey"`
	RoomID     string `gorm:"type:varchar(100);index;not null"`
	SenderID   string `gorm:"type:varchar(36);index;not null"`
	SenderName string `gorm:"type:varchar(50)"`
	GiftType   string `gorm:"type:varchar(20);not null"`
	GiftCount  int    `gorm:"not null;default:1"`
	CreatedAt  time.Time
}

func (GiftRecordModel) TableName() string {
	return "gifts"
}

func (m *GiftRecordModel) ToDomain() *GiftRecord {
	return &GiftRecord{
		ID:         m.ID,
		RoomID:     m.RoomID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		GiftType:   m.GiftType,
		GiftCount:  m.GiftCount,
		CreatedAt:  m.CreatedAt,
	}
}

func GiftRecordToModel(r *GiftRecord) *GiftRecordModel {
	return &GiftRecordModel{
		ID:         r.ID,
		RoomID:     r.RoomID,
		SenderID:   r.SenderID,
		SenderName: r.SenderName,
		GiftType:   r.GiftType,
		GiftCount:  r.GiftCount,
		CreatedAt:  r.CreatedAt,
	}
}

// UserRecord is the last profile snapshot seen for a user, kept for the
// admin surface only. The live path never reads it back.
type UserRecord struct {
	UserID     string    `json:"userId"`
	Nickname   string    `json:"nickname"`
	Avatar     string    `json:"avatar,omitempty"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// UserRecordModel is the GORM model for the users table.
type UserRecordModel struct {
	UserID     string `gorm:"type:varchar(36);primaryKey"`
	Nickname   string `gorm:"type:varchar(50);not null"`
	Avatar     string `gorm:"type:varchar(255)"`
	LastSeenAt time.Time
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (UserRecordModel) TableName() string {
	return "users"
}

func (m *UserRecordModel) ToDomain() *UserRecord {
	return &UserRecord{
		UserID:     m.UserID,
		Nickname:   m.Nickname,
		Avatar:     m.Avatar,
		LastSeenAt: m.LastSeenAt,
	}
}

func UserRecordToModel(r *UserRecord) *UserRecordModel {
	return &UserRecordModel{
		UserID:     r.UserID,
		Nickname:   r.Nickname,
		Avatar:     r.Avatar,
		LastSeenAt: r.LastSeenAt,
	}
}
