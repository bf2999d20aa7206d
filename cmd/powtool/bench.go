package main

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jibuji/bitbi/internal/core/chain"
	"github.com/jibuji/bitbi/internal/core/infrastructure/crypto/pow"
)

var (
	benchCount   int
	benchWorkers int
)

// benchCmd 测量内存困难哈希的验证吞吐
var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "测量验证吞吐",
	Long: `测量内存困难方案的验证吞吐

构建验证上下文池后, 用指定数量的并发worker反复验证同一纪元内
nonce递增的区块头, 报告总耗时与每秒哈希数。

示例:
  powtool bench --count 200 --workers 4`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchCount <= 0 || benchWorkers <= 0 {
			return fmt.Errorf("count 与 workers 必须大于0")
		}
		params, err := chainParams()
		if err != nil {
			return err
		}

		engine, err := pow.NewEngine(params, logger, pow.PoolConfig{Size: benchWorkers})
		if err != nil {
			return err
		}
		defer engine.Close()

		base := chain.BlockHeader{
			Version:   1,
			Timestamp: uint32(time.Now().Unix()),
			Bits:      params.PowLimitBits,
		}

		var wg sync.WaitGroup
		errs := make([]error, benchWorkers)
		perWorker := benchCount / benchWorkers

		start := time.Now()
		for w := 0; w < benchWorkers; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()
				header := base
				for i := 0; i < perWorker; i++ {
					header.Nonce = uint32(w*perWorker + i)
					if _, err := engine.CheckProofOfWorkX(&header); err != nil {
						errs[w] = err
						return
					}
				}
			}(w)
		}
		wg.Wait()
		elapsed := time.Since(start)

		for _, err := range errs {
			if err != nil {
				return err
			}
		}

		total := perWorker * benchWorkers
		fmt.Printf("验证 %d 次, %d 个worker, 耗时 %s\n", total, benchWorkers, elapsed.Round(time.Millisecond))
		fmt.Printf("吞吐: %.2f 哈希/秒\n", float64(total)/elapsed.Seconds())
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVar(&benchCount, "count", 100, "验证总次数")
	benchCmd.Flags().IntVar(&benchWorkers, "workers", 2, "并发worker数")
}
