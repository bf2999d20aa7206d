package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jibuji/bitbi/internal/core/chain"
	"github.com/jibuji/bitbi/internal/core/infrastructure/crypto/pow"
)

// verifyCmd 校验80字节区块头的工作量证明
var verifyCmd = &cobra.Command{
	Use:   "verify <header-hex>",
	Short: "校验区块头的工作量证明",
	Long: `校验一个序列化区块头 (160位十六进制, 80字节小端布局) 的工作量证明

使用内存困难方案: 派生纪元密钥、计算区块头哈希并与难度目标比较。

示例:
  powtool verify --network regtest 01000000000000...`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := chainParams()
		if err != nil {
			return err
		}

		raw, err := hex.DecodeString(args[0])
		if err != nil {
			return fmt.Errorf("解析区块头十六进制: %w", err)
		}
		header, err := chain.DeserializeBlockHeader(raw)
		if err != nil {
			return err
		}

		engine, err := pow.NewEngine(params, logger, pow.PoolConfig{Size: 1})
		if err != nil {
			return err
		}
		defer engine.Close()

		ok, err := engine.CheckProofOfWorkX(&header)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("工作量证明无效")
			return fmt.Errorf("区块头未通过验证")
		}
		fmt.Println("工作量证明有效")
		return nil
	},
}
