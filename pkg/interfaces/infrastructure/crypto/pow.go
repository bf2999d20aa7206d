// Package crypto 提供基础设施层加密/共识组件的公共接口定义
//
// 🔐 **PoW引擎接口 (Proof-of-Work Engine Interface)**
//
// 本文件定义PoW子系统对验证与挖矿调用方暴露的统一接口：
// - 难度演化：计算下一个区块的必要难度目标
// - 难度校验：独立校验对等节点给出的难度转换是否合法
// - 工作量验证：传统哈希比较方案与内存困难方案
// - 挖矿：为单个区块头创建专属矿工
//
// 🎯 **设计原则**：
// - 依赖注入：实现通过构造函数装配，不存在全局单例
// - 并发安全：验证接口可被任意多个goroutine并发调用
// - 显式错误：所有资源获取失败都通过error返回，调用方可测试
package crypto

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/jibuji/bitbi/internal/core/chain"
)

// POWEngine PoW引擎统一接口
type POWEngine interface {
	// NextWorkRequired 计算基于tip的下一个区块的难度目标紧凑编码
	NextWorkRequired(tip *chain.BlockIndex, blockTime int64) (uint32, error)

	// PermittedDifficultyTransition 校验 oldBits → newBits 的难度转换在给定高度是否合法
	PermittedDifficultyTransition(height int64, oldBits, newBits uint32) bool

	// CheckProofOfWork 传统方案：检查哈希是否满足紧凑目标
	CheckProofOfWork(hash chainhash.Hash, bits uint32) bool

	// CheckProofOfWorkX 内存困难方案：计算区块头的纪元密钥哈希并比对目标
	CheckProofOfWorkX(header *chain.BlockHeader) (bool, error)

	// NewMiner 为指定区块头创建专属矿工（独占全量dataset）
	NewMiner(header chain.BlockHeader) (PowMiner, error)

	// Close 释放引擎持有的全部验证上下文
	Close() error
}

// PowMiner 单区块头的挖矿搜索器
type PowMiner interface {
	// Mine 从当前nonce开始搜索，直到找到满足目标的哈希或被取消
	//
	// cancel 为协作式取消谓词，每次nonce尝试前轮询一次。
	// 取消与nonce空间耗尽通过可识别的哨兵错误区分。
	Mine(cancel func() bool) (*chainhash.Hash, uint32, error)

	// Close 释放矿工独占的dataset资源
	Close()
}
