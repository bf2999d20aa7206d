package rx

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pbnjay/memory"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/blake2b"
)

// Cache 由纪元密钥播种的紧凑内存结构
//
// 分配一次、重复播种：Init 可以用新密钥反复调用，
// 相对于分配而言播种是廉价操作。
// Cache 不做内部同步，持有者负责互斥。
type Cache struct {
	mode        Mode
	flags       Flags
	data        []byte
	key         []byte
	initialized bool
}

// AllocCache 分配指定模式的Cache（未播种）
//
// 按空闲物理内存做前置检查，分配失败显式报错而不是留下半成品。
func AllocCache(mode Mode, flags Flags) (*Cache, error) {
	need := CacheBytes(mode)
	if free := memory.FreeMemory(); free > 0 && need > free {
		return nil, fmt.Errorf("cache分配失败: 需要 %d 字节，空闲物理内存仅 %d 字节", need, free)
	}
	return &Cache{
		mode:  mode,
		flags: flags,
		data:  make([]byte, need),
	}, nil
}

// Init 用给定密钥播种Cache
//
// 播种分两步：Argon2（内存困难部分）从密钥导出64字节种子，
// 再用BLAKE2b XOF把种子扩展为整个Cache内容。
func (c *Cache) Init(key []byte) error {
	if c.data == nil {
		return fmt.Errorf("cache已释放，无法播种")
	}
	seed := argon2.IDKey(key, argonSalt, argonTime, uint32(CacheBytes(c.mode)/1024), argonLanes, seedLen)
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, seed)
	if err != nil {
		return fmt.Errorf("cache扩展初始化失败: %w", err)
	}
	if _, err := io.ReadFull(xof, c.data); err != nil {
		return fmt.Errorf("cache填充失败: %w", err)
	}
	c.key = append(c.key[:0], key...)
	c.initialized = true
	return nil
}

// Initialized 返回Cache是否已播种
func (c *Cache) Initialized() bool {
	return c.initialized
}

// Mode 返回Cache的规格模式
func (c *Cache) Mode() Mode {
	return c.mode
}

// Release 释放Cache占用的内存，之后不可再用
func (c *Cache) Release() {
	c.data = nil
	c.key = nil
	c.initialized = false
}

// Item 从Cache按需推导第i个Dataset条目
//
// 轻模式VM与Dataset构建共用此函数，保证轻/全两条路径逐位一致。
// 前置条件：Cache已播种。
func (c *Cache) Item(i uint64) [ItemSize]byte {
	blocks := uint64(len(c.data)) / ItemSize

	var seed [ItemSize + 8]byte
	start := (i % blocks) * ItemSize
	copy(seed[:ItemSize], c.data[start:start+ItemSize])
	binary.LittleEndian.PutUint64(seed[ItemSize:], i)

	h := blake2b.Sum512(seed[:])
	for r := 0; r < itemRounds; r++ {
		idx := binary.LittleEndian.Uint64(h[:8]) % blocks
		blk := c.data[idx*ItemSize : idx*ItemSize+ItemSize]
		for k := 0; k < ItemSize; k++ {
			h[k] ^= blk[k]
		}
		h = blake2b.Sum512(h[:])
	}
	return h
}
