package dataset

import (
	"sync"

	"github.com/zeromicro/go-zero/core/syncx"
)

// Cache 按 key 缓存生成好的输入数据，同一 key 的并发请求只生成一次
type Cache struct {
	flight syncx.SingleFlight

	mu    sync.Mutex
	items map[string]any
}

func NewCache() *Cache {
	return &Cache{
		flight: syncx.NewSingleFlight(),
		items:  make(map[string]any),
	}
}

func (c *Cache) lookup(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	return v, ok
}

// Len 返回已缓存的条目数
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Reset 丢弃全部缓存，释放大矩阵占用的内存
func (c *Cache) Reset() {
	c.mu.Lock()
	c.items = make(map[string]any)
	c.mu.Unlock()
}

// Load 返回 key 对应的数据，不存在时调用 gen 生成并缓存
func Load[T any](c *Cache, key string, gen func() T) T {
	if v, ok := c.lookup(key); ok {
		return v.(T)
	}
	v, _ := c.flight.Do(key, func() (any, error) {
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v := gen()
		c.mu.Lock()
		c.items[key] = v
		c.mu.Unlock()
		return v, nil
	})
	return v.(T)
}
