// Package delta 把编辑器的 step 编码成 retain / insert / delete 操作序列，
// 用于 Kafka 事件和 websocket 推送。位置单位与文档位置一致。
package delta

import (
	"blockEditor/backend/internal/transform"
)

type Kind string

const (
	KindRetain Kind = "retain"
	KindInsert Kind = "insert"
	KindDelete Kind = "delete"
)

type Op struct {
	Kind  Kind           `json:"kind"`            // "retain" / "insert" / "delete"
	Count int            `json:"count,omitempty"` // 占用的文档位置数
	Text  string         `json:"text,omitempty"`  // insert 的纯文本
	Attrs map[string]any `json:"attrs,omitempty"` // mark 变化等
}

type Delta []Op

// "ops":[{"kind":"retain","count":5},{"kind":"insert","count":5,"text":"Hello"}]

// 块之间、叶子节点在 Text 里的占位
const (
	blockSep = "\n"
	leafText = "\ufffc"
)

// Retain 追加 retain，相邻的无属性 retain 合并
func (d Delta) Retain(n int, attrs map[string]any) Delta {
	if n <= 0 {
		return d
	}
	if len(attrs) == 0 && len(d) > 0 {
		last := &d[len(d)-1]
		if last.Kind == KindRetain && len(last.Attrs) == 0 {
			last.Count += n
			return d
		}
	}
	return append(d, Op{Kind: KindRetain, Count: n, Attrs: attrs})
}

func (d Delta) Delete(n int) Delta {
	if n <= 0 {
		return d
	}
	if len(d) > 0 && d[len(d)-1].Kind == KindDelete {
		d[len(d)-1].Count += n
		return d
	}
	return append(d, Op{Kind: KindDelete, Count: n})
}

func (d Delta) Insert(count int, text string, attrs map[string]any) Delta {
	if count <= 0 {
		return d
	}
	return append(d, Op{Kind: KindInsert, Count: count, Text: text, Attrs: attrs})
}

// BaseLen 是 delta 覆盖的旧文档长度（retain + delete）
func (d Delta) BaseLen() int {
	n := 0
	for _, op := range d {
		if op.Kind != KindInsert {
			n += op.Count
		}
	}
	return n
}

// Diff 是应用后文档长度的变化量
func (d Delta) Diff() int {
	n := 0
	for _, op := range d {
		switch op.Kind {
		case KindInsert:
			n += op.Count
		case KindDelete:
			n -= op.Count
		}
	}
	return n
}

// FromStep 编码单个 step，位置基于 step 应用前的文档
func FromStep(step transform.Step) Delta {
	switch s := step.(type) {
	case *transform.ReplaceStep:
		var d Delta
		d = d.Retain(s.From, nil).Delete(s.To - s.From)
		content := s.Slice.Content
		text := content.TextBetween(0, content.Size(), blockSep, leafText)
		var attrs map[string]any
		if content.ChildCount() == 1 && content.Child(0).IsText() && len(content.Child(0).Marks) > 0 {
			names := make([]string, 0, len(content.Child(0).Marks))
			for _, m := range content.Child(0).Marks {
				names = append(names, m.Type.Name)
			}
			attrs = map[string]any{"marks": names}
		}
		return d.Insert(s.Slice.Size(), text, attrs)
	case *transform.AddMarkStep:
		var d Delta
		return d.Retain(s.From, nil).Retain(s.To-s.From, map[string]any{"mark": s.Mark.Type.Name, "set": true})
	case *transform.RemoveMarkStep:
		var d Delta
		return d.Retain(s.From, nil).Retain(s.To-s.From, map[string]any{"mark": s.Type.Name, "set": false})
	}
	return fromMap(step.GetMap())
}

// fromMap 只用 step map 描述结构变化（包裹、提升、改类型）
func fromMap(m *transform.StepMap) Delta {
	var d Delta
	pos := 0
	r := m.Ranges()
	for i := 0; i+2 < len(r); i += 3 {
		start, oldSize, newSize := r[i], r[i+1], r[i+2]
		d = d.Retain(start-pos, nil).Delete(oldSize).Insert(newSize, "", nil)
		pos = start + oldSize
	}
	return d
}

// FromSteps 按顺序编码一个事务的所有 step，每个 step 一个 delta
func FromSteps(steps []transform.Step) []Delta {
	out := make([]Delta, 0, len(steps))
	for _, s := range steps {
		out = append(out, FromStep(s))
	}
	return out
}
