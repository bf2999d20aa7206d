// Package pow 提供POW子系统的核心引擎
//
// 🔧 **核心引擎组件 (Core Engine Component)**
//
// 本文件定义POW引擎门面，专注于：
// - 组件装配：集成难度计算、验证引擎与上下文池
// - 接口实现：实现pkg/interfaces中定义的POWEngine接口
// - 生命周期：池的构造与关闭由引擎统一负责
//
// 🎯 **职责边界**：
// - 不直接实现难度/验证/挖矿逻辑（委托给专门的组件）
// - 引擎是显式构造、显式持有的组件，不存在全局单例；
//   生命周期通常与节点进程一致，但测试可以用小容量池构造
//
// 🔗 **组件关系**：
// - DifficultyCalculator: difficulty.go，难度演化与转换校验
// - ValidationEngine: validation.go，两种验证方案
// - ContextPool: pool.go，池化的验证上下文
// - Miner: mining.go，由引擎按区块头创建，独占资源
package pow

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	consensusconfig "github.com/jibuji/bitbi/internal/config/consensus"
	"github.com/jibuji/bitbi/internal/core/chain"
	"github.com/jibuji/bitbi/internal/core/infrastructure/crypto/rx"
	"github.com/jibuji/bitbi/pkg/interfaces/infrastructure/crypto"
	log "github.com/jibuji/bitbi/pkg/interfaces/infrastructure/log"
)

// Engine POW核心引擎门面
type Engine struct {
	params *consensusconfig.ChainParams
	logger log.Logger

	pool       *ContextPool
	difficulty *DifficultyCalculator
	validation *ValidationEngine

	minerMode  rx.Mode
	minerFlags rx.Flags
}

// 编译期接口断言
var _ crypto.POWEngine = (*Engine)(nil)

// NewEngine 创建POW核心引擎实例
//
// 校验共识参数、构造上下文池并装配各组件。
// 池分配失败即引擎构造失败，不存在部分可用的引擎。
func NewEngine(params *consensusconfig.ChainParams, logger log.Logger, poolCfg PoolConfig) (*Engine, error) {
	if params == nil {
		return nil, fmt.Errorf("共识参数不能为空")
	}
	if logger == nil {
		return nil, fmt.Errorf("日志记录器不能为空")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("共识参数非法: %w", err)
	}

	pool, err := NewContextPool(poolCfg, logger)
	if err != nil {
		return nil, err
	}

	difficulty, err := NewDifficultyCalculator(params, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	validation, err := NewValidationEngine(params, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Engine{
		params:     params,
		logger:     logger,
		pool:       pool,
		difficulty: difficulty,
		validation: validation,
		minerMode:  poolCfg.Mode,
		minerFlags: poolCfg.Flags,
	}, nil
}

// NextWorkRequired 计算基于tip的下一个区块的难度目标紧凑编码
func (e *Engine) NextWorkRequired(tip *chain.BlockIndex, blockTime int64) (uint32, error) {
	return e.difficulty.NextWorkRequired(tip, blockTime)
}

// PermittedDifficultyTransition 校验难度转换是否合法
func (e *Engine) PermittedDifficultyTransition(height int64, oldBits, newBits uint32) bool {
	return e.difficulty.PermittedDifficultyTransition(height, oldBits, newBits)
}

// CheckProofOfWork 传统方案验证
func (e *Engine) CheckProofOfWork(hash chainhash.Hash, bits uint32) bool {
	return e.validation.CheckProofOfWork(hash, bits)
}

// CheckProofOfWorkX 内存困难方案验证
func (e *Engine) CheckProofOfWorkX(header *chain.BlockHeader) (bool, error) {
	return e.validation.CheckProofOfWorkX(header)
}

// NewMiner 为指定区块头创建专属矿工
//
// 矿工与验证池使用相同的规格模式与加速标志。
func (e *Engine) NewMiner(header chain.BlockHeader) (crypto.PowMiner, error) {
	return NewMiner(header, e.params, e.logger, &MinerOptions{
		Mode:  e.minerMode,
		Flags: e.minerFlags,
	})
}

// Pool 返回引擎持有的验证上下文池（测试与诊断用）
func (e *Engine) Pool() *ContextPool {
	return e.pool
}

// Close 释放引擎持有的全部验证上下文
func (e *Engine) Close() error {
	return e.pool.Close()
}
