// Package autosave 把编辑器的每次文档变化落到草稿缓存、Kafka 事件和限流后的
// 快照存储。
package autosave

import (
	"context"
	"log"
	"time"

	"golang.org/x/time/rate"

	"blockEditor/backend/internal/ot/delta"
	"blockEditor/backend/internal/state"
)

// DraftWriter 保存最新的导出 HTML
type DraftWriter interface {
	SaveDraft(ctx context.Context, docID string, rev uint64, html string) error
}

// SnapshotWriter 持久化某个版本的 HTML
type SnapshotWriter interface {
	SaveDocumentSnapshot(ctx context.Context, docID string, rev uint64, content string) error
}

// EventSink 接收内容变化事件，KafkaDispatcher 实现了它
type EventSink interface {
	Enqueue(ctx context.Context, evt ContentChangedEvent) error
}

type Options struct {
	SnapshotsPerSecond float64       `mapstructure:"SnapshotsPerSecond"`
	SnapshotBurst      int           `mapstructure:"SnapshotBurst"`
	Timeout            time.Duration `mapstructure:"Timeout"`
}

func DefaultOptions() Options {
	return Options{SnapshotsPerSecond: 0.2, SnapshotBurst: 1, Timeout: 500 * time.Millisecond}
}

// Saver 绑定一个文档。不是并发安全的，和它的编辑器一样由一个 goroutine 驱动
type Saver struct {
	docID     string
	drafts    DraftWriter
	snapshots SnapshotWriter
	events    EventSink
	limiter   *rate.Limiter
	timeout   time.Duration
	now       func() time.Time

	revision uint64
	saved    uint64 // 最近一次快照的版本
	ops      []delta.Delta
	lastHTML string
}

// NewSaver 任何一个依赖为 nil 时跳过对应的落地方式
func NewSaver(docID string, rev uint64, drafts DraftWriter, snapshots SnapshotWriter, events EventSink, opts Options) *Saver {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	limit := rate.Inf
	if opts.SnapshotsPerSecond > 0 {
		limit = rate.Limit(opts.SnapshotsPerSecond)
	}
	burst := opts.SnapshotBurst
	if burst <= 0 {
		burst = 1
	}
	return &Saver{
		docID:     docID,
		drafts:    drafts,
		snapshots: snapshots,
		events:    events,
		limiter:   rate.NewLimiter(limit, burst),
		timeout:   opts.Timeout,
		now:       time.Now,
		revision:  rev,
		saved:     rev,
	}
}

func (s *Saver) Revision() uint64 { return s.revision }

// Dirty 有没有还没写进快照的变化
func (s *Saver) Dirty() bool { return s.saved != s.revision }

// OnTransaction 记录事务的 delta，在 OnUpdate 之前调用
func (s *Saver) OnTransaction(tr *state.Transaction) {
	s.ops = append(s.ops, delta.FromSteps(tr.Steps)...)
}

// OnUpdate 每次文档变化后调用：版本号 +1，写草稿，发事件，按限流写快照
func (s *Saver) OnUpdate(html string) {
	s.revision++
	s.lastHTML = html
	ops := s.ops
	s.ops = nil

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if s.drafts != nil {
		if err := s.drafts.SaveDraft(ctx, s.docID, s.revision, html); err != nil {
			log.Printf("save draft failed doc=%s rev=%d err=%v", s.docID, s.revision, err)
		}
	}
	if s.events != nil {
		evt := ContentChangedEvent{
			EventType: EventContentChanged,
			DocID:     s.docID,
			Revision:  s.revision,
			HTML:      html,
			Ops:       ops,
			ChangedAt: s.now(),
		}
		if err := s.events.Enqueue(ctx, evt); err != nil {
			log.Printf("enqueue event failed doc=%s rev=%d err=%v", s.docID, s.revision, err)
		}
	}
	if s.limiter.Allow() {
		if err := s.snapshot(ctx); err != nil {
			log.Printf("save snapshot failed doc=%s rev=%d err=%v", s.docID, s.revision, err)
		}
	}
}

// Flush 不受限流，把最新内容写进快照
func (s *Saver) Flush(ctx context.Context) error {
	if !s.Dirty() {
		return nil
	}
	return s.snapshot(ctx)
}

func (s *Saver) snapshot(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}
	if err := s.snapshots.SaveDocumentSnapshot(ctx, s.docID, s.revision, s.lastHTML); err != nil {
		return err
	}
	s.saved = s.revision
	return nil
}
