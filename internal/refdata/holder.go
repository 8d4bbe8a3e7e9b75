package refdata

import "sync/atomic"

// Holder 持有当前生效的参考表快照。
// 刷新时先完整构建新 Store 再整体替换指针，请求侧永远读到一致的快照。
type Holder struct {
	current atomic.Pointer[Store]
}

// NewHolder 以初始快照创建 Holder
func NewHolder(store *Store) *Holder {
	h := &Holder{}
	h.current.Store(store)
	return h
}

// Get 取当前快照
func (h *Holder) Get() *Store { return h.current.Load() }

// Swap 原子替换为新快照
func (h *Holder) Swap(store *Store) { h.current.Store(store) }
