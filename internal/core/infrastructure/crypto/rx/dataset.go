package rx

import (
	"fmt"

	"github.com/pbnjay/memory"
)

// Dataset 由Cache派生的全量内存结构
//
// 构建完成后自给自足，不再依赖源Cache；适合长时间运行的挖矿搜索。
// Init 可按条目区间分段调用，便于多个worker并行构建。
type Dataset struct {
	mode      Mode
	data      []byte
	itemCount uint64
}

// AllocDataset 分配指定模式的Dataset（未构建）
func AllocDataset(mode Mode, flags Flags) (*Dataset, error) {
	count := DatasetItemCount(mode)
	need := count * ItemSize
	if free := memory.FreeMemory(); free > 0 && need > free {
		return nil, fmt.Errorf("dataset分配失败: 需要 %d 字节，空闲物理内存仅 %d 字节", need, free)
	}
	return &Dataset{
		mode:      mode,
		data:      make([]byte, need),
		itemCount: count,
	}, nil
}

// ItemCount 返回Dataset的条目数
func (d *Dataset) ItemCount() uint64 {
	return d.itemCount
}

// Init 从已播种的Cache构建 [startItem, startItem+count) 区间的条目
//
// 各区间互不重叠时可以并发调用。
func (d *Dataset) Init(c *Cache, startItem, count uint64) error {
	if d.data == nil {
		return fmt.Errorf("dataset已释放，无法构建")
	}
	if c == nil || !c.Initialized() {
		return fmt.Errorf("dataset构建失败: cache未播种")
	}
	if c.Mode() != d.mode {
		return fmt.Errorf("dataset构建失败: cache模式(%d)与dataset模式(%d)不一致", c.Mode(), d.mode)
	}
	if startItem+count > d.itemCount {
		return fmt.Errorf("dataset构建失败: 区间 [%d, %d) 越界，条目总数 %d", startItem, startItem+count, d.itemCount)
	}
	for i := startItem; i < startItem+count; i++ {
		item := c.Item(i)
		copy(d.data[i*ItemSize:(i+1)*ItemSize], item[:])
	}
	return nil
}

// Release 释放Dataset占用的内存，之后不可再用
func (d *Dataset) Release() {
	d.data = nil
}

// item 返回第i个条目的切片（只读）
func (d *Dataset) item(i uint64) []byte {
	return d.data[i*ItemSize : (i+1)*ItemSize]
}
