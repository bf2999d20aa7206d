// Package pow 提供PoW子系统的核心实现
//
// 本文件实现256位目标值与32位紧凑编码之间的编解码（Compact-Target Codec）。
// 编码布局：1字节指数 | 1位符号 | 23位尾数，语义与参考实现的
// arith_uint256 SetCompact/GetCompact 逐位一致——这是共识关键代码，
// 任何精度差异都会导致链分叉。
//
// 错误通过 negative/overflow 输出标志传递，绝不panic；
// 调用方必须先检查标志再信任解码出的目标值。
package pow

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// CompactToBig 将紧凑编码还原为256位目标值
//
// 尾数左移 8*(指数-3) 位得到目标值。negative 表示符号位被置位且尾数非零；
// overflow 表示尾数非零且指数隐含的移位超出256位范围。
func CompactToBig(compact uint32) (bn *big.Int, negative bool, overflow bool) {
	mantissa := compact & 0x007fffff
	exponent := uint(compact >> 24)

	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}

	negative = compact&0x00800000 != 0 && mantissa != 0
	overflow = mantissa != 0 && (exponent > 34 ||
		(mantissa > 0xff && exponent > 33) ||
		(mantissa > 0xffff && exponent > 32))
	return bn, negative, overflow
}

// BigToCompact 将非负的256位目标值编码为紧凑格式
//
// 选择最小指数使尾数装进3字节，且尾数首字节最高位保持清零
// （该位保留作符号位）。对正输入永不产生负编码。
func BigToCompact(n *big.Int) uint32 {
	if n.Sign() == 0 {
		return 0
	}

	var mantissa uint32
	exponent := uint(len(n.Bytes()))
	if exponent <= 3 {
		mantissa = uint32(n.Uint64() << (8 * (3 - exponent)))
	} else {
		tn := new(big.Int).Rsh(n, 8*(exponent-3))
		mantissa = uint32(tn.Uint64())
	}

	// 尾数最高位是符号位，被占用时整体右移一字节并加大指数
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	return uint32(exponent)<<24 | mantissa
}

// HashToBig 将32字节小端哈希解释为256位无符号整数
func HashToBig(hash *chainhash.Hash) *big.Int {
	buf := *hash
	blen := len(buf)
	for i := 0; i < blen/2; i++ {
		buf[i], buf[blen-1-i] = buf[blen-1-i], buf[i]
	}
	return new(big.Int).SetBytes(buf[:])
}
