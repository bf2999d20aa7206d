// Package pow 提供POW挖矿引擎实现
//
// ⛏️ **挖矿组件 (Miner Component)**
//
// 本文件专门实现单个区块头的nonce空间搜索：
// - 专属资源：矿工独占一个全量dataset与VM，不经过验证池
//   （挖矿长时间独占单一纪元密钥，池化摊销不了任何成本）
// - 一次性并行构建：固定worker数均分dataset条目区间，余数归
//   最后一个worker，全部join后cache即可释放
// - 单线程搜索：nonce逐一递增，协作式取消谓词每次尝试轮询一次
// - 吞吐观测：每20000次尝试记录一次 ms/hash（可观测性副作用，
//   不属于正确性契约）
package pow

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	consensusconfig "github.com/jibuji/bitbi/internal/config/consensus"
	"github.com/jibuji/bitbi/internal/core/chain"
	"github.com/jibuji/bitbi/internal/core/infrastructure/crypto/rx"
	log "github.com/jibuji/bitbi/pkg/interfaces/infrastructure/log"
)

const (
	// datasetBuildWorkers dataset并行构建的固定worker数
	datasetBuildWorkers = 8

	// hashReportInterval 吞吐观测间隔（每多少次尝试记录一次）
	hashReportInterval = 20000
)

var (
	// ErrMiningCancelled 挖矿被调用方取消——正常终止，不是失败
	ErrMiningCancelled = errors.New("挖矿已被取消")

	// ErrNonceExhausted 32位nonce空间已绕回起点仍未找到解，
	// 调用方应更换时间戳或默克尔根后重试
	ErrNonceExhausted = errors.New("nonce空间已耗尽")
)

// Miner 单区块头的挖矿搜索器
//
// 候选区块头在构造时拷贝，搜索只修改本地副本的nonce字段。
type Miner struct {
	mu      sync.Mutex
	header  chain.BlockHeader
	params  *consensusconfig.ChainParams
	logger  log.Logger
	dataset *rx.Dataset
	vm      *rx.VM
}

// MinerOptions 矿工可选配置
type MinerOptions struct {
	// Mode 引擎规格模式（零值为生产规格；测试传 rx.ModeTest）
	Mode rx.Mode

	// Flags 引擎加速标志，FlagDefault 表示自动探测；
	// FlagFullMem 恒被附加（矿工必须绑定dataset）
	Flags rx.Flags
}

// NewMiner 为指定区块头创建专属矿工
//
// 构造流程：派生纪元密钥 → 分配并播种cache → 分配dataset →
// 并行构建 → 释放cache（dataset此后自给自足）→ 绑定VM。
// 任何一步分配失败对本矿工实例都是致命的，显式报错。
func NewMiner(header chain.BlockHeader, params *consensusconfig.ChainParams, logger log.Logger, opts *MinerOptions) (*Miner, error) {
	if params == nil {
		return nil, fmt.Errorf("共识参数不能为空")
	}
	if logger == nil {
		return nil, fmt.Errorf("日志记录器不能为空")
	}

	mode := rx.ModeNormal
	flags := rx.FlagDefault
	if opts != nil {
		mode = opts.Mode
		flags = opts.Flags
	}
	if flags == rx.FlagDefault {
		flags = rx.DetectFlags()
	}
	flags |= rx.FlagFullMem

	key := PowKey(&header)

	cache, err := rx.AllocCache(mode, flags)
	if err != nil {
		return nil, fmt.Errorf("矿工cache分配失败: %w", err)
	}
	if err := cache.Init(key[:]); err != nil {
		cache.Release()
		return nil, fmt.Errorf("矿工cache播种失败: %w", err)
	}

	dataset, err := rx.AllocDataset(mode, flags)
	if err != nil {
		cache.Release()
		return nil, fmt.Errorf("矿工dataset分配失败: %w", err)
	}

	// 并行构建：均分条目区间，余数归最后一个worker，join后继续
	total := dataset.ItemCount()
	perWorker := total / datasetBuildWorkers
	remainder := total % datasetBuildWorkers

	buildStart := time.Now()
	var wg sync.WaitGroup
	buildErrs := make([]error, datasetBuildWorkers)
	startItem := uint64(0)
	for i := 0; i < datasetBuildWorkers; i++ {
		count := perWorker
		if i == datasetBuildWorkers-1 {
			count += remainder
		}
		wg.Add(1)
		go func(w int, start, n uint64) {
			defer wg.Done()
			buildErrs[w] = dataset.Init(cache, start, n)
		}(i, startItem, count)
		startItem += count
	}
	wg.Wait()

	// dataset构建完成后自给自足，cache可以释放
	cache.Release()

	for _, err := range buildErrs {
		if err != nil {
			dataset.Release()
			return nil, fmt.Errorf("矿工dataset构建失败: %w", err)
		}
	}

	vm, err := rx.NewVM(flags, nil, dataset)
	if err != nil {
		dataset.Release()
		return nil, fmt.Errorf("矿工VM创建失败: %w", err)
	}

	logger.Infof("矿工初始化完成: %d 个dataset条目, %d 个构建worker, 耗时 %s",
		total, datasetBuildWorkers, time.Since(buildStart))

	return &Miner{
		header:  header,
		params:  params,
		logger:  logger,
		dataset: dataset,
		vm:      vm,
	}, nil
}

// Mine 从区块头当前nonce开始搜索，直到找到满足目标的哈希或被取消
//
// cancel 为协作式取消谓词，每次nonce尝试前轮询一次；取消延迟
// 最多为一次哈希计算的时长。nonce按32位自然回绕，绕回起点仍
// 无解时返回 ErrNonceExhausted。
func (m *Miner) Mine(cancel func() bool) (*chainhash.Hash, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.vm == nil {
		return nil, 0, fmt.Errorf("矿工已关闭")
	}

	target, negative, overflow := CompactToBig(m.header.Bits)
	if negative || overflow || target.Sign() == 0 {
		return nil, 0, fmt.Errorf("非法的难度目标编码: %#08x", m.header.Bits)
	}

	buf := m.header.Serialize()
	startNonce := m.header.Nonce
	nonce := startNonce
	attempts := 0
	sw := time.Now()

	for {
		if cancel != nil && cancel() {
			m.logger.Info("收到停止信号，挖矿中止")
			return nil, 0, ErrMiningCancelled
		}

		binary.LittleEndian.PutUint32(buf[76:80], nonce)
		hash := chainhash.Hash(m.vm.CalcHash(buf[:]))
		attempts++
		powMinerHashesTotal.Inc()

		if attempts%hashReportInterval == 0 {
			elapsed := time.Since(sw)
			m.logger.Infof("挖矿吞吐: %.3f ms/hash, nonce=%d",
				float64(elapsed.Microseconds())/1000/hashReportInterval, nonce)
			sw = time.Now()
		}

		if HashToBig(&hash).Cmp(target) <= 0 {
			found := hash
			m.logger.Infof("找到有效nonce: %d, 哈希=%s", nonce, hash)
			return &found, nonce, nil
		}

		nonce++
		if nonce == startNonce {
			return nil, 0, ErrNonceExhausted
		}
	}
}

// Close 释放矿工独占的dataset资源
func (m *Miner) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vm != nil {
		m.vm.Destroy()
		m.vm = nil
	}
	if m.dataset != nil {
		m.dataset.Release()
		m.dataset = nil
	}
}
