package chain

// BlockIndex 最佳链树中一个区块位置的索引节点
//
// 节点不拥有其父节点；只要外部保留整条链，父节点就比子节点存活得更久。
// 节点一经创建即不可变（重组簿记由外部索引模块负责），PoW核心只读访问。
type BlockIndex struct {
	// Height 区块高度（非负）
	Height int64

	// Bits 本区块的难度目标紧凑编码
	Bits uint32

	// Time 区块时间（Unix秒）
	Time int64

	// Parent 父节点引用，创世区块为nil
	Parent *BlockIndex
}

// GetBlockTime 返回区块时间（Unix秒）
func (b *BlockIndex) GetBlockTime() int64 {
	return b.Time
}

// Ancestor 沿父指针回溯，返回指定高度的祖先节点
//
// height 超出 [0, b.Height] 范围或链在中途断裂时返回nil。
func (b *BlockIndex) Ancestor(height int64) *BlockIndex {
	if height < 0 || height > b.Height {
		return nil
	}
	node := b
	for node != nil && node.Height > height {
		node = node.Parent
	}
	return node
}
