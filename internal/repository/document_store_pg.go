package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invitely/eventhub/internal/model"
)

type pgDocumentStore struct {
	db *gorm.DB
}

// NewPGDocumentStore stores documents in the kv_documents table (see model.AutoMigrate).
func NewPGDocumentStore(db *gorm.DB) DocumentStore {
	return &pgDocumentStore{db: db}
}

func (s *pgDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc model.Document
	err := s.db.WithContext(ctx).First(&doc, "doc_key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

func (s *pgDocumentStore) Set(ctx context.Context, key string, value []byte) error {
	doc := model.Document{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "doc_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&doc).Error
}

func (s *pgDocumentStore) Delete(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&model.Document{}, "doc_key = ?", key).Error
}

func (s *pgDocumentStore) MultiGet(ctx context.Context, keys []string) ([][]byte, error) {
	out := make([][]byte, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var docs []model.Document
	if err := s.db.WithContext(ctx).Where("doc_key IN ?", keys).Find(&docs).Error; err != nil {
		return nil, err
	}
	byKey := make(map[string][]byte, len(docs))
	for _, d := range docs {
		byKey[d.Key] = d.Value
	}
	for i, key := range keys {
		out[i] = byKey[key]
	}
	return out, nil
}
