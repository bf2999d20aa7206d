// Package pow 提供POW验证引擎实现
//
// ✅ **验证引擎组件 (Validation Engine Component)**
//
// 本文件专门实现工作量证明的两种验证方案：
// - 传统方案 CheckProofOfWork：纯函数，解码目标后直接比较哈希
// - 内存困难方案 CheckProofOfWorkX：派生纪元密钥、借用池化上下文
//   计算区块头哈希，再委托传统方案比对目标
//
// 🎯 **职责边界**：
// - 不涉及难度演化（由difficulty.go负责）
// - 不涉及挖矿搜索（由mining.go负责）
// - 池是唯一共享状态，归还纪律由defer保证覆盖所有退出路径
package pow

import (
	"encoding/binary"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	consensusconfig "github.com/jibuji/bitbi/internal/config/consensus"
	"github.com/jibuji/bitbi/internal/core/chain"
	log "github.com/jibuji/bitbi/pkg/interfaces/infrastructure/log"
)

// epochBucketSeconds 纪元密钥的时间桶宽度（约4天）
//
// 共识常量：让Cache/Dataset的重建成本摊销到大量区块上，
// 且与难度周期解耦（按墙钟时间而非区块高度轮换）。
const epochBucketSeconds = 345678

// PowKey 从区块头派生纪元密钥
//
// key = sha256d( LE32(version) ‖ LE32(time/桶宽) ‖ LE32(bits) ‖ LE32(0) )
// 同一时间桶内的所有区块共享同一密钥；nonce不参与派生。
func PowKey(header *chain.BlockHeader) chainhash.Hash {
	var buf [16]byte
	binary.LittleEndian.PutUint32(buf[0:4], uint32(header.Version))
	binary.LittleEndian.PutUint32(buf[4:8], header.Timestamp/epochBucketSeconds)
	binary.LittleEndian.PutUint32(buf[8:12], header.Bits)
	binary.LittleEndian.PutUint32(buf[12:16], 0)
	return chainhash.DoubleHashH(buf[:])
}

// CheckProofOfWork 传统方案：检查哈希是否满足紧凑目标
//
// 纯函数。目标为负、为零、溢出或高于工作量证明上限时一律拒绝。
func CheckProofOfWork(hash chainhash.Hash, bits uint32, params *consensusconfig.ChainParams) bool {
	target, negative, overflow := CompactToBig(bits)

	if negative || overflow || target.Sign() == 0 || target.Cmp(params.PowLimit) > 0 {
		return false
	}

	return HashToBig(&hash).Cmp(target) <= 0
}

// ValidationEngine 验证引擎组件
//
// 可被任意多个goroutine并发调用；池内部自行同步。
type ValidationEngine struct {
	params *consensusconfig.ChainParams
	pool   *ContextPool
	logger log.Logger
}

// NewValidationEngine 创建验证引擎
func NewValidationEngine(params *consensusconfig.ChainParams, pool *ContextPool, logger log.Logger) (*ValidationEngine, error) {
	if params == nil {
		return nil, fmt.Errorf("共识参数不能为空")
	}
	if pool == nil {
		return nil, fmt.Errorf("验证上下文池不能为空")
	}
	if logger == nil {
		return nil, fmt.Errorf("日志记录器不能为空")
	}
	return &ValidationEngine{params: params, pool: pool, logger: logger}, nil
}

// CheckProofOfWork 传统方案验证（委托纯函数）
func (v *ValidationEngine) CheckProofOfWork(hash chainhash.Hash, bits uint32) bool {
	return CheckProofOfWork(hash, bits, v.params)
}

// CheckProofOfWorkX 内存困难方案验证
//
// 借出→重播种→哈希→归还；defer保证任何退出路径都归还上下文。
func (v *ValidationEngine) CheckProofOfWorkX(header *chain.BlockHeader) (bool, error) {
	if header == nil {
		return false, fmt.Errorf("区块头不能为空")
	}

	key := PowKey(header)
	preimage := header.Serialize()

	ctx := v.pool.Checkout()
	defer v.pool.Checkin(ctx)

	if err := ctx.Reinitialize(key); err != nil {
		return false, err
	}
	hash, err := ctx.CalcHash(preimage[:])
	if err != nil {
		return false, err
	}
	powVerifyHashesTotal.Inc()

	return CheckProofOfWork(hash, header.Bits, v.params), nil
}
