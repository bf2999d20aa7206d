package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/spf13/cobra"

	"github.com/jibuji/bitbi/internal/core/chain"
	"github.com/jibuji/bitbi/internal/core/infrastructure/crypto/pow"
)

var (
	mineVersion int32
	minePrev    string
	mineMerkle  string
	mineTime    int64
	mineBits    string
	mineNonce   uint32
)

// mineCmd 对给定区块头搜索有效nonce
var mineCmd = &cobra.Command{
	Use:   "mine",
	Short: "搜索区块头的有效nonce",
	Long: `对给定的区块头字段搜索满足难度目标的nonce

挖矿会先构建全量dataset（生产规格约2GiB内存、数分钟构建时间），
随后单线程搜索nonce空间。Ctrl+C 可随时中断。

示例:
  powtool mine --network regtest --merkle 4a5e1e4b...
  powtool mine --bits 0x207fffff --time 1700000000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := chainParams()
		if err != nil {
			return err
		}

		header, err := buildHeader(params.PowLimitBits)
		if err != nil {
			return err
		}

		miner, err := pow.NewMiner(header, params, logger, nil)
		if err != nil {
			return err
		}
		defer miner.Close()

		// Ctrl+C 置位停止标志，由挖矿循环的取消谓词轮询
		var stop atomic.Bool
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			<-sigChan
			stop.Store(true)
		}()

		start := time.Now()
		hash, nonce, err := miner.Mine(stop.Load)
		if errors.Is(err, pow.ErrMiningCancelled) {
			fmt.Println("挖矿已中断")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("找到有效nonce: %d (耗时 %s)\n", nonce, time.Since(start).Round(time.Millisecond))
		fmt.Printf("区块哈希: %s\n", hash)
		return nil
	},
}

func init() {
	mineCmd.Flags().Int32Var(&mineVersion, "version", 1, "区块版本号")
	mineCmd.Flags().StringVar(&minePrev, "prev", "", "前块哈希 (64位十六进制)")
	mineCmd.Flags().StringVar(&mineMerkle, "merkle", "", "默克尔根 (64位十六进制)")
	mineCmd.Flags().Int64Var(&mineTime, "time", 0, "区块时间 (Unix秒, 默认当前时间)")
	mineCmd.Flags().StringVar(&mineBits, "bits", "", "难度目标紧凑编码 (如 0x1d00ffff, 默认网络上限)")
	mineCmd.Flags().Uint32Var(&mineNonce, "nonce", 0, "起始nonce")
}

// buildHeader 从命令行标志组装候选区块头
func buildHeader(defaultBits uint32) (chain.BlockHeader, error) {
	header := chain.BlockHeader{
		Version: mineVersion,
		Bits:    defaultBits,
		Nonce:   mineNonce,
	}

	if minePrev != "" {
		h, err := chainhash.NewHashFromStr(minePrev)
		if err != nil {
			return chain.BlockHeader{}, fmt.Errorf("解析前块哈希: %w", err)
		}
		header.PrevBlock = *h
	}
	if mineMerkle != "" {
		h, err := chainhash.NewHashFromStr(mineMerkle)
		if err != nil {
			return chain.BlockHeader{}, fmt.Errorf("解析默克尔根: %w", err)
		}
		header.MerkleRoot = *h
	}

	if mineTime > 0 {
		header.Timestamp = uint32(mineTime)
	} else {
		header.Timestamp = uint32(time.Now().Unix())
	}

	if mineBits != "" {
		bits, err := strconv.ParseUint(mineBits, 0, 32)
		if err != nil {
			return chain.BlockHeader{}, fmt.Errorf("解析难度编码: %w", err)
		}
		header.Bits = uint32(bits)
	}
	return header, nil
}
