package cache

import "fmt"

// 键语义：
// - draftKey(docID):  最新导出的 HTML 草稿（Hash{rev, html}），带 TTL
// - roomKey(docID):   打开该文档的编辑会话（ZSet<sessionID, expireAtUnix>，score=expireAt）
// - namesKey(docID):  会话 sessionID→username 映射（Hash）
//
// {} 是 cluster hash tag：同一个文档的键落在同一个 slot，lua 脚本才能同时操作

const (
	keyDraftFmt = "draft:{docID:%s}"
	keyRoomFmt  = "presence:room:{docID:%s}"
	keyNamesFmt = "presence:room:names:{docID:%s}"
)

func draftKey(docID string) string { return fmt.Sprintf(keyDraftFmt, docID) }
func roomKey(docID string) string  { return fmt.Sprintf(keyRoomFmt, docID) }
func namesKey(docID string) string { return fmt.Sprintf(keyNamesFmt, docID) }
