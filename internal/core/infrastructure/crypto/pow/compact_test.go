package pow

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// TestCompactToBig 已知向量：与参考实现的 SetCompact 逐位一致
func TestCompactToBig(t *testing.T) {
	tests := []struct {
		name     string
		compact  uint32
		want     *big.Int
		negative bool
		overflow bool
	}{
		{"零编码", 0x00000000, big.NewInt(0), false, false},
		{"指数1截断尾数", 0x01003456, big.NewInt(0), false, false},
		{"指数1单字节", 0x01123456, big.NewInt(0x12), false, false},
		{"指数2带符号位尾数", 0x02008000, big.NewInt(0x80), false, false},
		{"指数4", 0x04123456, big.NewInt(0x12345600), false, false},
		{"指数5", 0x05009234, big.NewInt(0x92340000), false, false},
		{"负目标", 0x04923456, big.NewInt(0x12345600), true, false},
		{"主网创世目标", 0x1d00ffff,
			new(big.Int).Lsh(big.NewInt(0xffff), 208), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bn, negative, overflow := CompactToBig(tt.compact)
			require.Equal(t, 0, bn.Cmp(tt.want), "目标值不匹配: got %x want %x", bn, tt.want)
			require.Equal(t, tt.negative, negative)
			require.Equal(t, tt.overflow, overflow)
		})
	}
}

// TestCompactToBigOverflow 溢出判定边界：尾数宽度与指数的组合
func TestCompactToBigOverflow(t *testing.T) {
	tests := []struct {
		name     string
		compact  uint32
		overflow bool
	}{
		{"指数35任何尾数溢出", 0x23000001, true},
		{"指数255溢出", 0xff000001, true},
		{"指数34双字节尾数溢出", 0x22000100, true},
		{"指数34单字节尾数合法", 0x220000ff, false},
		{"指数33三字节尾数溢出", 0x21010000, true},
		{"指数33双字节尾数合法", 0x2100ffff, false},
		{"指数35零尾数不溢出", 0x23000000, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, overflow := CompactToBig(tt.compact)
			require.Equal(t, tt.overflow, overflow)
		})
	}
}

// TestBigToCompact 编码与符号位右移规则
func TestBigToCompact(t *testing.T) {
	tests := []struct {
		name string
		in   *big.Int
		want uint32
	}{
		{"零", big.NewInt(0), 0x00000000},
		{"符号位冲突时右移一字节", big.NewInt(0x80), 0x02008000},
		{"主网创世目标", new(big.Int).Lsh(big.NewInt(0xffff), 208), 0x1d00ffff},
		{"回归测试网上限", new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1)), 0x207fffff},
		{"主网上限截断", new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 224), big.NewInt(1)), 0x1d00ffff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, BigToCompact(tt.in))
		})
	}
}

// TestCompactRoundTrip 精确可表示的目标值编码往返后不变
func TestCompactRoundTrip(t *testing.T) {
	for _, compact := range []uint32{0x1d00ffff, 0x1d01fffe, 0x1d03fffc, 0x1c3fffc0, 0x207fffff} {
		bn, negative, overflow := CompactToBig(compact)
		require.False(t, negative)
		require.False(t, overflow)
		require.Equal(t, compact, BigToCompact(bn), "编码往返失败: %#08x", compact)
	}
}

// TestHashToBig 小端哈希按字节反转后解释为大端整数
func TestHashToBig(t *testing.T) {
	var hash chainhash.Hash
	hash[0] = 0x01 // 最低有效字节
	hash[31] = 0xab

	bn := HashToBig(&hash)

	want := new(big.Int).Lsh(big.NewInt(0xab), 248)
	want.Add(want, big.NewInt(0x01))
	require.Equal(t, 0, bn.Cmp(want))

	// 原哈希不被修改
	require.Equal(t, byte(0x01), hash[0])
	require.Equal(t, byte(0xab), hash[31])
}
