package model

import "time"

// Document is one key-value entry in the postgres document store.
type Document struct {
	Key       string    `gorm:"column:doc_key;type:varchar(512);primaryKey"`
	Value     []byte    `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (Document) TableName() string { return "kv_documents" }
