package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// PresenceCache 记录每个文档当前打开的编辑会话
type PresenceCache interface {
	AddSession(ctx context.Context, docID, sessionID, username string, ttl time.Duration) error
	RemoveSession(ctx context.Context, docID, sessionID string) error
	AliveSessions(ctx context.Context, docID string) ([]PresenceMember, error)
}

type PresenceMember struct {
	SessionID string `json:"sessionId"`
	Username  string `json:"username,omitempty"`
}

// 具体实现：基于 redis 的 PresenceCache
type redisPresence struct {
	rdb redis.UniversalClient
}

func NewRedisPresence(rdb redis.UniversalClient) PresenceCache {
	return &redisPresence{rdb: rdb}
}

// AddSession 刷新 TTL 也直接调用它
func (p *redisPresence) AddSession(ctx context.Context, docID, sessionID, username string, ttl time.Duration) error {
	tx := p.rdb.TxPipeline()
	// ZSET score 使用 expireAt（Unix 秒），表达“逻辑 TTL”
	expireAt := time.Now().Add(ttl).Unix()
	tx.ZAdd(ctx, roomKey(docID), redis.Z{Score: float64(expireAt), Member: sessionID})
	tx.HSet(ctx, namesKey(docID), sessionID, username)
	_, err := tx.Exec(ctx)
	return err
}

func (p *redisPresence) RemoveSession(ctx context.Context, docID, sessionID string) error {
	tx := p.rdb.TxPipeline()
	tx.ZRem(ctx, roomKey(docID), sessionID)
	tx.HDel(ctx, namesKey(docID), sessionID)
	_, err := tx.Exec(ctx)
	return err
}

// 清理过期会话，返回清理的数量
var expireSessionsScript = redis.NewScript(`
-- KEYS[1] = roomKey(docID), KEYS[2] = namesKey(docID)
-- ARGV[1] = now (unix seconds)
local expired = redis.call("ZRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
if #expired > 0 then
	redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
	redis.call("HDEL", KEYS[2], unpack(expired))
end
return #expired
`)

func (p *redisPresence) AliveSessions(ctx context.Context, docID string) ([]PresenceMember, error) {
	// 约定：score=expireAt，expireAt <= now 视为过期
	now := time.Now().Unix()
	_, err := expireSessionsScript.Run(ctx, p.rdb, []string{roomKey(docID), namesKey(docID)}, now).Int()
	if err != nil && err != redis.Nil {
		return nil, err
	}

	alive, err := p.rdb.ZRangeByScore(ctx, roomKey(docID), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(now, 10), // > now
		Max: "+inf",
	}).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	if len(alive) == 0 {
		return nil, nil
	}
	names, err := p.rdb.HMGet(ctx, namesKey(docID), alive...).Result()
	if err != nil && err != redis.Nil {
		return nil, err
	}
	members := make([]PresenceMember, 0, len(alive))
	for i, v := range names {
		name, _ := v.(string)
		members = append(members, PresenceMember{SessionID: alive[i], Username: name})
	}
	return members, nil
}
