// Package chain 提供区块头与链索引节点的基础类型
//
// 本包是PoW核心与外部验证/索引模块之间的数据契约：
// - BlockHeader：不可变的区块头值类型（固定80字节序列化布局）
// - BlockIndex：最佳链上一个区块位置的索引节点（父指针可回溯）
//
// PoW核心只读使用这些类型，从不修改链索引。
package chain

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// HeaderSize 区块头序列化后的固定字节数
const HeaderSize = 80

// BlockHeader 区块头值类型
//
// 所有字段定宽。挖矿过程只会修改本地副本的 Nonce 字段。
type BlockHeader struct {
	// Version 区块版本号
	Version int32

	// PrevBlock 前一个区块的哈希
	PrevBlock chainhash.Hash

	// MerkleRoot 交易默克尔树根
	MerkleRoot chainhash.Hash

	// Timestamp 区块时间（Unix秒）
	Timestamp uint32

	// Bits 难度目标的紧凑编码
	Bits uint32

	// Nonce 挖矿随机数
	Nonce uint32
}

// Serialize 将区块头序列化为固定的80字节小端布局
//
// 布局：version(4) | prev(32) | merkle(32) | time(4) | bits(4) | nonce(4)，
// 整数字段均为小端，哈希按字节原样写入。
func (h *BlockHeader) Serialize() [HeaderSize]byte {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(h.Version))
	copy(buf[4:36], h.PrevBlock[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	binary.LittleEndian.PutUint32(buf[76:80], h.Nonce)
	return buf
}

// GetBlockTime 返回区块时间（Unix秒）
func (h *BlockHeader) GetBlockTime() int64 {
	return int64(h.Timestamp)
}

// DeserializeBlockHeader 从80字节小端布局还原区块头，Serialize 的逆操作
func DeserializeBlockHeader(buf []byte) (BlockHeader, error) {
	if len(buf) != HeaderSize {
		return BlockHeader{}, fmt.Errorf("区块头长度非法: 期望%d字节, 实际%d字节", HeaderSize, len(buf))
	}
	var h BlockHeader
	h.Version = int32(binary.LittleEndian.Uint32(buf[0:4]))
	copy(h.PrevBlock[:], buf[4:36])
	copy(h.MerkleRoot[:], buf[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(buf[68:72])
	h.Bits = binary.LittleEndian.Uint32(buf[72:76])
	h.Nonce = binary.LittleEndian.Uint32(buf[76:80])
	return h, nil
}
