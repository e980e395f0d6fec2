package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Item struct {
	Id        uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Text      string         `gorm:"type:text;not null"`
	Category  string         `gorm:"type:varchar(32);not null;default:'Other';index"`
	Link      *string        `gorm:"type:text"`
	Done      bool           `gorm:"not null;default:false;index"`
	Place     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (Item) TableName() string {
	return "items"
}
