package collab

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"blockEditor/backend/internal/cache"
	"blockEditor/backend/internal/schema"
	"blockEditor/backend/internal/store"
)

// 内容格式
const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"
)

var ErrUnknownFormat = errors.New("UNKNOWN_FORMAT")

// 快照存储接口
type SnapshotStore interface {
	SaveDocumentSnapshot(ctx context.Context, docID string, rev uint64, content string) error
	LatestSnapshot(ctx context.Context, docID string) (uint64, string, error)
}

// 文档元数据接口
type DocumentStore interface {
	CreateDocument(ctx context.Context, ownerID uint64, title string) (store.Document, error)
	GetDocument(ctx context.Context, id uint64) (store.Document, error)
	Touch(ctx context.Context, id uint64) error
}

// 草稿缓存接口
type DraftCache interface {
	Load(ctx context.Context, docID string, loader func(ctx context.Context) (cache.Draft, error)) (cache.Draft, error)
	SaveDraft(ctx context.Context, docID string, rev uint64, html string) error
}

// Service 文档内容服务：规范化、创建、读取最新内容、落快照
type Service struct {
	reg *schema.Registry

	// 依赖注入，均可为 nil
	snapshots SnapshotStore
	documents DocumentStore
	drafts    DraftCache
}

func NewService(reg *schema.Registry, snapshots SnapshotStore, documents DocumentStore, drafts DraftCache) *Service {
	return &Service{reg: reg, snapshots: snapshots, documents: documents, drafts: drafts}
}

func (s *Service) Registry() *schema.Registry { return s.reg }

// Normalize 解析后重新导出，得到编辑器认可的 HTML
func (s *Service) Normalize(format, content string) (string, error) {
	switch format {
	case "", FormatHTML:
		doc, err := s.reg.ParseHTML(content)
		if err != nil {
			return "", err
		}
		return s.reg.SerializeHTML(doc), nil
	case FormatMarkdown:
		doc, err := s.reg.ParseMarkdown(content)
		if err != nil {
			return "", err
		}
		return s.reg.SerializeHTML(doc), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// CreateDocument 建元数据并写入 0 号快照
func (s *Service) CreateDocument(ctx context.Context, ownerID uint64, title, format, content string) (store.Document, string, error) {
	if s.documents == nil {
		return store.Document{}, "", errors.New("document store not configured")
	}
	html, err := s.Normalize(format, content)
	if err != nil {
		return store.Document{}, "", err
	}
	doc, err := s.documents.CreateDocument(ctx, ownerID, title)
	if err != nil {
		return store.Document{}, "", err
	}
	docID := strconv.FormatUint(doc.ID, 10)
	if s.snapshots != nil {
		if err := s.snapshots.SaveDocumentSnapshot(ctx, docID, 0, html); err != nil {
			return store.Document{}, "", err
		}
	}
	return doc, html, nil
}

// Latest 最新内容：先草稿缓存，未命中再读快照。同一文档并发读只查一次库
func (s *Service) Latest(ctx context.Context, docID string) (cache.Draft, error) {
	loader := func(ctx context.Context) (cache.Draft, error) {
		if s.snapshots == nil {
			return cache.Draft{}, store.ErrSnapshotStoreNotInitialized
		}
		rev, html, err := s.snapshots.LatestSnapshot(ctx, docID)
		if err != nil {
			return cache.Draft{}, err
		}
		return cache.Draft{Revision: rev, HTML: html}, nil
	}
	if s.drafts == nil {
		return loader(ctx)
	}
	return s.drafts.Load(ctx, docID, loader)
}

// Get 元数据加最新内容
func (s *Service) Get(ctx context.Context, id uint64) (store.Document, cache.Draft, error) {
	var doc store.Document
	if s.documents != nil {
		var err error
		if doc, err = s.documents.GetDocument(ctx, id); err != nil {
			return store.Document{}, cache.Draft{}, err
		}
	}
	d, err := s.Latest(ctx, strconv.FormatUint(id, 10))
	if err != nil {
		return store.Document{}, cache.Draft{}, err
	}
	return doc, d, nil
}

// Open 编辑会话的初始内容；文档还没有任何内容时从空文档、0 号版本开始
func (s *Service) Open(ctx context.Context, docID string) (cache.Draft, error) {
	d, err := s.Latest(ctx, docID)
	if errors.Is(err, store.ErrDocumentNotFound) || errors.Is(err, store.ErrSnapshotStoreNotInitialized) {
		return cache.Draft{}, nil
	}
	return d, err
}

// SaveDocumentSnapshot 写快照并刷新文档的 updated_at
func (s *Service) SaveDocumentSnapshot(ctx context.Context, docID string, rev uint64, content string) error {
	if s.snapshots == nil {
		return store.ErrSnapshotStoreNotInitialized
	}
	if err := s.snapshots.SaveDocumentSnapshot(ctx, docID, rev, content); err != nil {
		return err
	}
	if s.documents == nil {
		return nil
	}
	id, err := strconv.ParseUint(docID, 10, 64)
	if err != nil {
		return nil
	}
	if err := s.documents.Touch(ctx, id); err != nil {
		// 元数据刷新失败不影响快照
		log.Printf("touch document failed doc=%s rev=%d: %v", docID, rev, err)
	}
	return nil
}

// SaveDraft 写草稿缓存，没有缓存时什么都不做
func (s *Service) SaveDraft(ctx context.Context, docID string, rev uint64, html string) error {
	if s.drafts == nil {
		return nil
	}
	return s.drafts.SaveDraft(ctx, docID, rev, html)
}
