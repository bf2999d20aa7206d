// Package consensus 提供共识层的配置选项
//
// ⚙️ **共识参数配置 (Consensus Parameters)**
//
// 本文件定义链级共识参数，专注于：
// - 难度调整参数：目标出块间隔、重定目标周期
// - 工作量证明上限：最大目标值（最小难度）
// - 网络特性开关：测试网最小难度、回归测试网固定难度
//
// 🎯 **设计原则**：
// - 进程级只读：启动时装载一次，随后所有组件只读访问
// - 每个网络一份预设：主网/测试网/回归测试网
// - 显式校验：Validate() 在启动阶段暴露非法配置
package consensus

import (
	"fmt"
	"math/big"
)

// ChainParams 链共识参数
//
// 📝 **字段说明**：
// - PowLimit: 工作量证明目标上限（即最小难度对应的最大目标值）
// - PowLimitBits: PowLimit 的紧凑编码（冗余存储，避免反复编码）
// - TargetTimespan: 一个难度调整周期的目标总时长（秒）
// - TargetSpacing: 目标出块间隔（秒）
// - AllowMinDifficultyBlocks: 测试网特殊规则，允许最小难度区块
// - NoRetargeting: 回归测试网特殊规则，难度永不调整
type ChainParams struct {
	Name string `json:"name"`

	PowLimit     *big.Int `json:"-"`
	PowLimitBits uint32   `json:"pow_limit_bits"`

	TargetTimespan int64 `json:"target_timespan"` // 秒
	TargetSpacing  int64 `json:"target_spacing"`  // 秒

	AllowMinDifficultyBlocks bool `json:"allow_min_difficulty_blocks"`
	NoRetargeting            bool `json:"no_retargeting"`
}

// DifficultyAdjustmentInterval 难度调整周期对应的区块数
func (p *ChainParams) DifficultyAdjustmentInterval() int64 {
	return p.TargetTimespan / p.TargetSpacing
}

// Validate 校验共识参数的合法性
func (p *ChainParams) Validate() error {
	if p.PowLimit == nil || p.PowLimit.Sign() <= 0 {
		return fmt.Errorf("PowLimit 必须为正的256位整数")
	}
	if p.TargetSpacing <= 0 {
		return fmt.Errorf("TargetSpacing 必须大于0，当前为 %d", p.TargetSpacing)
	}
	if p.TargetTimespan <= 0 {
		return fmt.Errorf("TargetTimespan 必须大于0，当前为 %d", p.TargetTimespan)
	}
	if p.TargetTimespan%p.TargetSpacing != 0 {
		return fmt.Errorf("TargetTimespan(%d) 必须是 TargetSpacing(%d) 的整数倍", p.TargetTimespan, p.TargetSpacing)
	}
	return nil
}

var bigOne = big.NewInt(1)

// mainPowLimit = 2^224 - 1，紧凑编码为 0x1d00ffff
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

// regressionPowLimit = 2^255 - 1，紧凑编码为 0x207fffff
var regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)

// MainNetParams 主网共识参数
func MainNetParams() *ChainParams {
	return &ChainParams{
		Name:           "mainnet",
		PowLimit:       new(big.Int).Set(mainPowLimit),
		PowLimitBits:   0x1d00ffff,
		TargetTimespan: 14 * 24 * 60 * 60, // 两周
		TargetSpacing:  10 * 60,           // 十分钟
	}
}

// TestNetParams 测试网共识参数
//
// 与主网的唯一差异：允许最小难度区块（长时间无块时可快速出块）。
func TestNetParams() *ChainParams {
	p := MainNetParams()
	p.Name = "testnet"
	p.AllowMinDifficultyBlocks = true
	return p
}

// RegressionNetParams 回归测试网共识参数
//
// 极低难度、难度永不调整，用于本地回归测试。
func RegressionNetParams() *ChainParams {
	return &ChainParams{
		Name:                     "regtest",
		PowLimit:                 new(big.Int).Set(regressionPowLimit),
		PowLimitBits:             0x207fffff,
		TargetTimespan:           14 * 24 * 60 * 60,
		TargetSpacing:            10 * 60,
		AllowMinDifficultyBlocks: true,
		NoRetargeting:            true,
	}
}
