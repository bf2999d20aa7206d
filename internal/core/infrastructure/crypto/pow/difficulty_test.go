package pow

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	consensusconfig "github.com/jibuji/bitbi/internal/config/consensus"
	"github.com/jibuji/bitbi/internal/core/chain"
	corelog "github.com/jibuji/bitbi/internal/core/infrastructure/log"
)

// wideLimitParams 主网的时间参数配上极宽的目标上限，
// 使重定目标结果不会被上限钳制，便于精确断言数值。
func wideLimitParams() *consensusconfig.ChainParams {
	p := consensusconfig.MainNetParams()
	p.PowLimit = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	p.PowLimitBits = 0x207fffff
	return p
}

// buildChain 构造一条 n 个节点的链，出块间隔恒定，统一难度位
func buildChain(n int64, bits uint32, spacing int64) *chain.BlockIndex {
	var tip *chain.BlockIndex
	for h := int64(0); h < n; h++ {
		tip = &chain.BlockIndex{
			Height: h,
			Bits:   bits,
			Time:   h * spacing,
			Parent: tip,
		}
	}
	return tip
}

func newDifficultyCalculator(t *testing.T, params *consensusconfig.ChainParams) *DifficultyCalculator {
	t.Helper()
	d, err := NewDifficultyCalculator(params, corelog.NewNop())
	require.NoError(t, err)
	return d
}

func TestNextWorkRequiredNilTip(t *testing.T) {
	d := newDifficultyCalculator(t, consensusconfig.MainNetParams())
	_, err := d.NextWorkRequired(nil, 0)
	require.Error(t, err)
}

// TestNextWorkRequiredNonBoundary 周期内难度保持不变
func TestNextWorkRequiredNonBoundary(t *testing.T) {
	d := newDifficultyCalculator(t, consensusconfig.MainNetParams())
	tip := buildChain(101, 0x1c3fffc0, 600)

	bits, err := d.NextWorkRequired(tip, tip.GetBlockTime()+600)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1c3fffc0), bits)
}

// TestNextWorkRequiredRetarget 周期边界上的重定目标数值
func TestNextWorkRequiredRetarget(t *testing.T) {
	params := wideLimitParams()
	interval := params.DifficultyAdjustmentInterval() // 2016

	tests := []struct {
		name           string
		actualTimespan int64
		want           uint32
	}{
		{"按时出块难度不变", params.TargetTimespan, 0x1d00ffff},
		{"耗时翻倍目标翻倍", params.TargetTimespan * 2, 0x1d01fffe},
		{"过快钳制到四分之一", params.TargetTimespan / 8, 0x1c3fffc0},
		{"过慢钳制到四倍", params.TargetTimespan * 8, 0x1d03fffc},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDifficultyCalculator(t, params)
			tip := buildChain(interval, 0x1d00ffff, 600)
			// 周期首块时间为0，直接把实际耗时写在tip上
			tip.Time = tt.actualTimespan

			bits, err := d.NextWorkRequired(tip, tip.GetBlockTime()+600)
			require.NoError(t, err)
			require.Equal(t, tt.want, bits)
		})
	}
}

// TestNextWorkRequiredPowLimitClamp 重定目标结果不超过工作量证明上限
func TestNextWorkRequiredPowLimitClamp(t *testing.T) {
	params := consensusconfig.MainNetParams()
	d := newDifficultyCalculator(t, params)

	// 已在最小难度上又严重超时：×4后超出上限，饱和到 0x1d00ffff
	tip := buildChain(params.DifficultyAdjustmentInterval(), 0x1d00ffff, 600)
	tip.Time = params.TargetTimespan * 8

	bits, err := d.NextWorkRequired(tip, tip.GetBlockTime()+600)
	require.NoError(t, err)
	require.Equal(t, uint32(0x1d00ffff), bits)
}

// TestNextWorkRequiredNoRetargeting 回归测试网难度永不调整
func TestNextWorkRequiredNoRetargeting(t *testing.T) {
	params := consensusconfig.RegressionNetParams()
	d := newDifficultyCalculator(t, params)

	tip := buildChain(params.DifficultyAdjustmentInterval(), 0x207fffff, 600)
	tip.Time = params.TargetTimespan * 8

	bits, err := d.NextWorkRequired(tip, tip.GetBlockTime()+600)
	require.NoError(t, err)
	require.Equal(t, uint32(0x207fffff), bits)
}

// TestNextWorkRequiredMinDifficulty 测试网最小难度规则
func TestNextWorkRequiredMinDifficulty(t *testing.T) {
	params := consensusconfig.TestNetParams()
	d := newDifficultyCalculator(t, params)
	powLimitBits := BigToCompact(params.PowLimit) // 0x1d00ffff

	t.Run("长时间无块允许最小难度", func(t *testing.T) {
		tip := buildChain(101, 0x1c3fffc0, 600)
		blockTime := tip.GetBlockTime() + params.TargetSpacing*2 + 1
		bits, err := d.NextWorkRequired(tip, blockTime)
		require.NoError(t, err)
		require.Equal(t, powLimitBits, bits)
	})

	t.Run("正常出块回溯真实难度", func(t *testing.T) {
		// 高度2持真实难度，其后全是最小难度区块
		tip := buildChain(3, 0x1c3fffc0, 600)
		for h := int64(3); h <= 5; h++ {
			tip = &chain.BlockIndex{Height: h, Bits: powLimitBits, Time: h * 600, Parent: tip}
		}

		bits, err := d.NextWorkRequired(tip, tip.GetBlockTime()+600)
		require.NoError(t, err)
		require.Equal(t, uint32(0x1c3fffc0), bits)
	})
}

// TestNextWorkRequiredMissingAncestor 周期首块缺失时显式报错
func TestNextWorkRequiredMissingAncestor(t *testing.T) {
	params := consensusconfig.MainNetParams()
	d := newDifficultyCalculator(t, params)

	// 声称高度2015但父链被截断
	tip := &chain.BlockIndex{Height: 2015, Bits: 0x1d00ffff, Time: 2015 * 600,
		Parent: &chain.BlockIndex{Height: 2014, Bits: 0x1d00ffff, Time: 2014 * 600}}

	_, err := d.NextWorkRequired(tip, tip.GetBlockTime()+600)
	require.Error(t, err)
}

// TestPermittedDifficultyTransition 难度转换窗口校验
func TestPermittedDifficultyTransition(t *testing.T) {
	params := wideLimitParams()
	d := newDifficultyCalculator(t, params)
	interval := params.DifficultyAdjustmentInterval()

	t.Run("非边界高度要求难度不变", func(t *testing.T) {
		require.True(t, d.PermittedDifficultyTransition(interval+1, 0x1d00ffff, 0x1d00ffff))
		require.False(t, d.PermittedDifficultyTransition(interval+1, 0x1d00ffff, 0x1d00fffe))
	})

	t.Run("边界高度窗口界限", func(t *testing.T) {
		old := uint32(0x1d00ffff)
		tests := []struct {
			name    string
			newBits uint32
			want    bool
		}{
			{"不变", 0x1d00ffff, true},
			{"目标翻倍", 0x1d01fffe, true},
			{"恰好四倍上界", 0x1d03fffc, true},
			{"超出四倍上界", 0x1d03fffd, false},
			{"恰好四分之一下界", 0x1c3fffc0, true},
			{"低于四分之一下界", 0x1c3fffbf, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				require.Equal(t, tt.want, d.PermittedDifficultyTransition(interval, old, tt.newBits))
			})
		}
	})

	t.Run("允许最小难度的网络恒为真", func(t *testing.T) {
		dt := newDifficultyCalculator(t, consensusconfig.TestNetParams())
		require.True(t, dt.PermittedDifficultyTransition(interval, 0x1d00ffff, 0x1c3fffbf))
	})
}
