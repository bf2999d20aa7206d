// Package pow 提供POW难度调整算法实现
//
// 📊 **难度调整组件 (Difficulty Adjuster)**
//
// 本文件专门实现难度目标的演化与校验，专注于：
// - 周期重定目标：每个难度调整周期按实际耗时重算目标
// - 周期内规则：非边界高度难度保持不变（测试网例外）
// - 独立校验：不重放全部历史即可校验对等节点给出的难度转换
//
// 🎯 **职责边界**：
// - 不涉及哈希计算与验证（由validation.go负责）
// - 不涉及挖矿逻辑（由mining.go负责）
//
// 🔧 **数值语义**：
// - 所有目标值运算基于256位无符号整数，除法向零截断
// - 重定目标使用 ×2048 定点缩放复刻参考实现的截断偏差，
//   该常量是精度与偏差的历史取舍，必须逐位保留以兼容既有链历史
// - 超过工作量证明上限时饱和钳制，绝不回绕
package pow

import (
	"fmt"
	"math/big"

	consensusconfig "github.com/jibuji/bitbi/internal/config/consensus"
	"github.com/jibuji/bitbi/internal/core/chain"
	log "github.com/jibuji/bitbi/pkg/interfaces/infrastructure/log"
)

// retargetScale 重定目标的定点缩放常量（共识常量，不可"改进"）
const retargetScale = 2048

// DifficultyCalculator 难度计算组件
type DifficultyCalculator struct {
	params *consensusconfig.ChainParams
	logger log.Logger
}

// NewDifficultyCalculator 创建难度计算组件
func NewDifficultyCalculator(params *consensusconfig.ChainParams, logger log.Logger) (*DifficultyCalculator, error) {
	if params == nil {
		return nil, fmt.Errorf("共识参数不能为空")
	}
	if logger == nil {
		return nil, fmt.Errorf("日志记录器不能为空")
	}
	return &DifficultyCalculator{params: params, logger: logger}, nil
}

// NextWorkRequired 计算基于tip的下一个区块的难度目标紧凑编码
//
// blockTime 为候选区块的时间戳（Unix秒）。
// 缺失祖先或首块高度为负属于调用方链索引损坏，返回显式错误并拒绝继续——
// 继续计算只会产出共识非法的结果。
func (d *DifficultyCalculator) NextWorkRequired(tip *chain.BlockIndex, blockTime int64) (uint32, error) {
	if tip == nil {
		return 0, fmt.Errorf("链顶索引不能为空")
	}

	powLimitBits := BigToCompact(d.params.PowLimit)
	interval := d.params.DifficultyAdjustmentInterval()

	// 难度只在每个调整周期的边界变化
	if (tip.Height+1)%interval != 0 {
		if d.params.AllowMinDifficultyBlocks {
			// 测试网特殊规则：超过两倍目标间隔没有出块时，
			// 允许挖一个最小难度区块
			if blockTime > tip.GetBlockTime()+d.params.TargetSpacing*2 {
				return powLimitBits, nil
			}
			// 否则回溯到最近一个非最小难度区块，沿用它的目标
			node := tip
			for node.Parent != nil && node.Height%interval != 0 && node.Bits == powLimitBits {
				node = node.Parent
			}
			return node.Bits, nil
		}
		return tip.Bits, nil
	}

	// 回溯一个完整周期（interval-1个区块）取首块时间
	firstHeight := tip.Height - (interval - 1)
	if firstHeight < 0 {
		return 0, fmt.Errorf("难度调整首块高度为负(%d)，链索引损坏", firstHeight)
	}
	first := tip.Ancestor(firstHeight)
	if first == nil {
		return 0, fmt.Errorf("高度 %d 的祖先缺失，链索引损坏", firstHeight)
	}

	return d.calculateNextWorkRequired(tip, first.GetBlockTime()), nil
}

// calculateNextWorkRequired 周期边界上的重定目标计算
func (d *DifficultyCalculator) calculateNextWorkRequired(tip *chain.BlockIndex, firstBlockTime int64) uint32 {
	if d.params.NoRetargeting {
		return tip.Bits
	}

	// 实际耗时钳制在 [目标/4, 目标×4]
	targetTimespan := d.params.TargetTimespan
	actualTimespan := tip.GetBlockTime() - firstBlockTime
	if actualTimespan < targetTimespan/4 {
		actualTimespan = targetTimespan / 4
	}
	if actualTimespan > targetTimespan*4 {
		actualTimespan = targetTimespan * 4
	}

	// 重定目标：×2048定点缩放，复刻参考实现的截断行为
	bn, _, _ := CompactToBig(tip.Bits)
	bn.Mul(bn, big.NewInt(actualTimespan*retargetScale/targetTimespan))
	bn.Div(bn, big.NewInt(retargetScale))
	if bn.Cmp(d.params.PowLimit) > 0 {
		bn.Set(d.params.PowLimit)
	}

	newBits := BigToCompact(bn)
	d.logger.Debugf("难度重定目标: 实际耗时=%ds 目标耗时=%ds %#08x → %#08x",
		actualTimespan, targetTimespan, tip.Bits, newBits)
	return newBits
}

// PermittedDifficultyTransition 校验难度转换是否在允许范围内
//
// 在周期边界上，用与重定目标相同的钳制界限从 oldBits 推出合法目标窗口，
// 每个界限都经过编码往返（BigToCompact→CompactToBig）以复刻精度损失，
// 再与观测到的 newBits 比较。非边界高度要求目标不变。
// 允许最小难度区块的网络上恒为真。
func (d *DifficultyCalculator) PermittedDifficultyTransition(height int64, oldBits, newBits uint32) bool {
	if d.params.AllowMinDifficultyBlocks {
		return true
	}

	if height%d.params.DifficultyAdjustmentInterval() == 0 {
		targetTimespan := d.params.TargetTimespan
		smallestTimespan := targetTimespan / 4
		largestTimespan := targetTimespan * 4

		observed, _, _ := CompactToBig(newBits)

		// 最大合法目标（难度下调上限）
		largestTarget, _, _ := CompactToBig(oldBits)
		largestTarget.Mul(largestTarget, big.NewInt(largestTimespan))
		largestTarget.Div(largestTarget, big.NewInt(targetTimespan))
		if largestTarget.Cmp(d.params.PowLimit) > 0 {
			largestTarget.Set(d.params.PowLimit)
		}
		maximumNewTarget, _, _ := CompactToBig(BigToCompact(largestTarget))
		if maximumNewTarget.Cmp(observed) < 0 {
			return false
		}

		// 最小合法目标（难度上调上限）
		smallestTarget, _, _ := CompactToBig(oldBits)
		smallestTarget.Mul(smallestTarget, big.NewInt(smallestTimespan))
		smallestTarget.Div(smallestTarget, big.NewInt(targetTimespan))
		if smallestTarget.Cmp(d.params.PowLimit) > 0 {
			smallestTarget.Set(d.params.PowLimit)
		}
		minimumNewTarget, _, _ := CompactToBig(BigToCompact(smallestTarget))
		if minimumNewTarget.Cmp(observed) > 0 {
			return false
		}
	} else if oldBits != newBits {
		return false
	}
	return true
}
