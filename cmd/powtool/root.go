package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	consensusconfig "github.com/jibuji/bitbi/internal/config/consensus"
	logconfig "github.com/jibuji/bitbi/internal/config/log"
	corelog "github.com/jibuji/bitbi/internal/core/infrastructure/log"
	logInterface "github.com/jibuji/bitbi/pkg/interfaces/infrastructure/log"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	Network  string // 网络名称: mainnet | testnet | regtest
	LogLevel string // 日志级别
	LogFile  string // 日志文件路径（为空仅控制台输出）
}

var (
	globalFlags GlobalFlags
	logger      logInterface.Logger
)

// rootCmd 根命令
var rootCmd = &cobra.Command{
	Use:   "powtool",
	Short: "工作量证明命令行工具",
	Long: `powtool - 工作量证明子系统的命令行工具

提供针对区块头的独立挖矿、验证与性能基准能力:
- mine:   对给定区块头搜索有效nonce (Ctrl+C 可中断)
- verify: 校验80字节区块头的工作量证明
- bench:  测量内存困难哈希的验证吞吐`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = corelog.New(&logconfig.Options{
			Level:    globalFlags.LogLevel,
			Console:  true,
			Filename: globalFlags.LogFile,
		})
		if err != nil {
			return fmt.Errorf("初始化日志: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute 执行根命令
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalFlags.Network, "network", "mainnet", "网络: mainnet|testnet|regtest")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogLevel, "log-level", "info", "日志级别: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&globalFlags.LogFile, "log-file", "", "日志文件路径 (默认仅控制台)")

	rootCmd.AddCommand(mineCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(benchCmd)
}

// chainParams 按全局网络标志解析共识参数
func chainParams() (*consensusconfig.ChainParams, error) {
	switch globalFlags.Network {
	case "mainnet":
		return consensusconfig.MainNetParams(), nil
	case "testnet":
		return consensusconfig.TestNetParams(), nil
	case "regtest":
		return consensusconfig.RegressionNetParams(), nil
	default:
		return nil, fmt.Errorf("未知网络: %s", globalFlags.Network)
	}
}
