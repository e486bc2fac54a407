package model

// Collection 按插入顺序保存订阅，名称唯一。
// 非并发安全，由持有者负责同步。
type Collection struct {
	keys  []string
	items map[string]*Subscribe
}

// NewCollection 创建空集合
func NewCollection() *Collection {
	return &Collection{items: make(map[string]*Subscribe)}
}

// Len 返回订阅数量
func (c *Collection) Len() int {
	return len(c.keys)
}

// Get 按名称查找订阅，不存在时返回 nil。
func (c *Collection) Get(key string) *Subscribe {
	return c.items[key]
}

// Has 判断名称是否已存在
func (c *Collection) Has(key string) bool {
	_, ok := c.items[key]
	return ok
}

// Set 写入订阅。已存在的名称原位替换，新名称追加到末尾。
func (c *Collection) Set(sub *Subscribe) {
	if _, ok := c.items[sub.Key]; !ok {
		c.keys = append(c.keys, sub.Key)
	}
	c.items[sub.Key] = sub
}

// Delete 删除订阅，名称不存在时不做任何事。
func (c *Collection) Delete(key string) {
	if _, ok := c.items[key]; !ok {
		return
	}
	delete(c.items, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i:i], c.keys[i+1:]...)
			break
		}
	}
}

// Keys 按插入顺序返回所有名称
func (c *Collection) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Values 按插入顺序返回所有订阅（共享指针，调用方不得修改）。
func (c *Collection) Values() []*Subscribe {
	out := make([]*Subscribe, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// LinkOwner 返回使用该链接的订阅名称，链接为空或未被使用时返回空字符串。
func (c *Collection) LinkOwner(link string) string {
	if link == "" {
		return ""
	}
	for _, k := range c.keys {
		if c.items[k].Link == link {
			return k
		}
	}
	return ""
}

// UniqueKey 在名称冲突时不断追加 DuplicateSuffix，空名称先替换为 UnknownKey。
func (c *Collection) UniqueKey(key string) string {
	if key == "" {
		key = UnknownKey
	}
	for c.Has(key) {
		key += DuplicateSuffix
	}
	return key
}

// Clone 深拷贝集合
func (c *Collection) Clone() *Collection {
	out := &Collection{
		keys:  make([]string, len(c.keys)),
		items: make(map[string]*Subscribe, len(c.items)),
	}
	copy(out.keys, c.keys)
	for k, v := range c.items {
		out.items[k] = v.Clone()
	}
	return out
}
