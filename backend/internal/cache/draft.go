package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var ErrDraftMiss = errors.New("draft not cached")

// Draft 某个版本的导出 HTML
type Draft struct {
	Revision uint64 `json:"revision"`
	HTML     string `json:"html"`
}

// DraftCache 每个文档最新的草稿。写入只接受不小于当前缓存版本的内容
type DraftCache struct {
	rdb redis.UniversalClient
	ttl time.Duration
	sf  singleflight.Group
}

func NewDraftCache(rdb redis.UniversalClient, ttl time.Duration) *DraftCache {
	return &DraftCache{rdb: rdb, ttl: ttl}
}

// 旧版本不能覆盖新版本；返回 1 表示写入
var saveDraftScript = redis.NewScript(`
-- KEYS[1] = draftKey(docID)
-- ARGV[1] = rev, ARGV[2] = html, ARGV[3] = ttl (ms)
local cur = redis.call("HGET", KEYS[1], "rev")
if cur and tonumber(cur) > tonumber(ARGV[1]) then
	return 0
end
redis.call("HSET", KEYS[1], "rev", ARGV[1], "html", ARGV[2])
if tonumber(ARGV[3]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
return 1
`)

func (c *DraftCache) SaveDraft(ctx context.Context, docID string, rev uint64, html string) error {
	_, err := saveDraftScript.Run(ctx, c.rdb, []string{draftKey(docID)}, rev, html, c.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("save draft %s: %w", docID, err)
	}
	return nil
}

// GetDraft 未命中时返回 ErrDraftMiss
func (c *DraftCache) GetDraft(ctx context.Context, docID string) (Draft, error) {
	vals, err := c.rdb.HMGet(ctx, draftKey(docID), "rev", "html").Result()
	if errors.Is(err, redis.Nil) {
		return Draft{}, ErrDraftMiss
	}
	if err != nil {
		return Draft{}, err
	}
	revStr, _ := vals[0].(string)
	html, ok := vals[1].(string)
	if revStr == "" || !ok {
		return Draft{}, ErrDraftMiss
	}
	rev, err := strconv.ParseUint(revStr, 10, 64)
	if err != nil {
		return Draft{}, fmt.Errorf("draft %s: bad revision %q: %w", docID, revStr, err)
	}
	return Draft{Revision: rev, HTML: html}, nil
}

// Load 读穿：先查缓存，未命中时调用 loader 并回填。同一文档的并发未命中只调用一次 loader
func (c *DraftCache) Load(ctx context.Context, docID string, loader func(ctx context.Context) (Draft, error)) (Draft, error) {
	d, err := c.GetDraft(ctx, docID)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrDraftMiss) {
		return Draft{}, err
	}
	v, err, _ := c.sf.Do(draftKey(docID), func() (any, error) {
		d, err := loader(ctx)
		if err != nil {
			return Draft{}, err
		}
		// 回填失败不影响这次读取
		_ = c.SaveDraft(ctx, docID, d.Revision, d.HTML)
		return d, nil
	})
	if err != nil {
		return Draft{}, err
	}
	return v.(Draft), nil
}

func (c *DraftCache) Delete(ctx context.Context, docID string) error {
	return c.rdb.Del(ctx, draftKey(docID)).Err()
}
