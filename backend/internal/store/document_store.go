package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func InitMySQL(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Document 文档元数据，正文在 document_snapshots
type Document struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uint64    `gorm:"index;not null" json:"ownerId"`
	Title     string    `gorm:"size:255;index;not null" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DocumentStore struct{ db *gorm.DB }

func NewDocumentStore(db *gorm.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

func (s *DocumentStore) Migrate() error {
	return s.db.AutoMigrate(&Document{})
}

func (s *DocumentStore) CreateDocument(ctx context.Context, ownerID uint64, title string) (Document, error) {
	doc := Document{OwnerID: ownerID, Title: title}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return Document{}, fmt.Errorf("create document %q: %w", title, err)
	}
	return doc, nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, id uint64) (Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrDocumentNotFound
	}
	return doc, err
}

// GetDocumentID 按标题查找，同名时取最早创建的
func (s *DocumentStore) GetDocumentID(ctx context.Context, title string) (uint64, error) {
	var doc Document
	err := s.db.WithContext(ctx).Where("title = ?", title).Order("id").First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrDocumentNotFound
	}
	return doc.ID, err
}

func (s *DocumentStore) ListDocuments(ctx context.Context, ownerID uint64) ([]Document, error) {
	var docs []Document
	err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("updated_at DESC").Find(&docs).Error
	return docs, err
}

// Touch 刷新 updated_at，autosave 写快照后调用
func (s *DocumentStore) Touch(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Model(&Document{ID: id}).Update("updated_at", time.Now()).Error
}
