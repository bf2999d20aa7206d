package chain

import (
	"encoding/binary"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// TestHeaderSerializeLayout 验证80字节小端序列化布局
func TestHeaderSerializeLayout(t *testing.T) {
	var prev, merkle chainhash.Hash
	for i := range prev {
		prev[i] = byte(i)
		merkle[i] = byte(0xff - i)
	}
	h := BlockHeader{
		Version:    2,
		PrevBlock:  prev,
		MerkleRoot: merkle,
		Timestamp:  0x11223344,
		Bits:       0x1d00ffff,
		Nonce:      0xdeadbeef,
	}

	buf := h.Serialize()
	require.Len(t, buf[:], HeaderSize)
	require.EqualValues(t, 2, binary.LittleEndian.Uint32(buf[0:4]))
	require.Equal(t, prev[:], buf[4:36])
	require.Equal(t, merkle[:], buf[36:68])
	require.EqualValues(t, 0x11223344, binary.LittleEndian.Uint32(buf[68:72]))
	require.EqualValues(t, 0x1d00ffff, binary.LittleEndian.Uint32(buf[72:76]))
	require.EqualValues(t, 0xdeadbeef, binary.LittleEndian.Uint32(buf[76:80]))
}

// TestHeaderDeserializeRoundTrip 序列化再反序列化得到原区块头
func TestHeaderDeserializeRoundTrip(t *testing.T) {
	h := BlockHeader{
		Version:   7,
		Timestamp: 1700000000,
		Bits:      0x207fffff,
		Nonce:     42,
	}
	h.PrevBlock[0] = 0xaa
	h.MerkleRoot[31] = 0xbb

	buf := h.Serialize()
	got, err := DeserializeBlockHeader(buf[:])
	require.NoError(t, err)
	require.Equal(t, h, got)

	_, err = DeserializeBlockHeader(buf[:79])
	require.Error(t, err)
}

// buildChain 构造一条 n+1 个节点（高度0..n）的测试链
func buildChain(n int64) *BlockIndex {
	tip := &BlockIndex{Height: 0, Bits: 0x1d00ffff, Time: 1000}
	for i := int64(1); i <= n; i++ {
		tip = &BlockIndex{Height: i, Bits: 0x1d00ffff, Time: 1000 + i*600, Parent: tip}
	}
	return tip
}

// TestAncestorWalk 验证祖先回溯
func TestAncestorWalk(t *testing.T) {
	tip := buildChain(100)

	require.Equal(t, tip, tip.Ancestor(100))
	anc := tip.Ancestor(37)
	require.NotNil(t, anc)
	require.EqualValues(t, 37, anc.Height)

	genesis := tip.Ancestor(0)
	require.NotNil(t, genesis)
	require.Nil(t, genesis.Parent)

	// 越界
	require.Nil(t, tip.Ancestor(-1))
	require.Nil(t, tip.Ancestor(101))
}
