// Package pow 提供验证上下文池实现
//
// 🏊 **验证上下文池 (Verifier Context Pool)**
//
// 内存困难哈希引擎的上下文（Cache+VM）构造昂贵（单个约256MiB），
// 本文件实现固定容量的阻塞式上下文池，在大量并发验证之间摊销该成本：
// - 构造期一次性分配全部上下文，任何一个分配失败即整体失败
// - Checkout 在池空时阻塞调用方（无超时，见DESIGN.md开放问题决议）
// - Checkin 永不阻塞，唤醒一个等待者（不保证FIFO公平性——这是
//   显式的非保证，调用方与测试都不得依赖唤醒顺序）
// - 惰性重播种：密钥未变化时 Reinitialize 是空操作
//
// 池的内部集合是本子系统唯一的并发共享可变状态，由单把互斥锁
// 加条件变量保护；上下文被借出期间只有借出者触碰其状态。
package pow

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pbnjay/memory"

	"github.com/jibuji/bitbi/internal/core/infrastructure/crypto/rx"
	log "github.com/jibuji/bitbi/pkg/interfaces/infrastructure/log"
)

// VerifierContext 可重用的验证上下文
//
// 持有一个分配后反复重播种的Cache和一个绑定它的VM。
// 同一时刻只能被一个持有者（池槽位或借出它的验证调用）使用。
type VerifierContext struct {
	key     chainhash.Hash
	keySet  bool
	flags   rx.Flags
	cache   *rx.Cache
	vm      *rx.VM
	reseeds uint64
}

// newVerifierContext 分配一个未播种的验证上下文
func newVerifierContext(mode rx.Mode, flags rx.Flags) (*VerifierContext, error) {
	cache, err := rx.AllocCache(mode, flags)
	if err != nil {
		return nil, err
	}
	return &VerifierContext{flags: flags, cache: cache}, nil
}

// Reinitialize 按需重播种上下文
//
// 密钥与当前已装载密钥相同时为空操作；否则销毁旧VM、用新密钥
// 重播种Cache并重建VM。播种是验证路径的主要成本，此惰性策略
// 把它摊销到共享同一纪元的所有验证调用上。
func (c *VerifierContext) Reinitialize(key chainhash.Hash) error {
	if c.keySet && c.key == key {
		return nil
	}
	if c.vm != nil {
		c.vm.Destroy()
		c.vm = nil
	}
	if err := c.cache.Init(key[:]); err != nil {
		return fmt.Errorf("验证上下文重播种失败: %w", err)
	}
	vm, err := rx.NewVM(c.flags, c.cache, nil)
	if err != nil {
		return fmt.Errorf("验证上下文VM重建失败: %w", err)
	}
	c.vm = vm
	c.key = key
	c.keySet = true
	c.reseeds++
	powPoolReseedsTotal.Inc()
	return nil
}

// CalcHash 用当前装载的密钥计算输入的内存困难哈希
//
// 前置条件：Reinitialize 已成功调用过至少一次。
func (c *VerifierContext) CalcHash(input []byte) (chainhash.Hash, error) {
	if c.vm == nil {
		return chainhash.Hash{}, fmt.Errorf("验证上下文未播种")
	}
	return chainhash.Hash(c.vm.CalcHash(input)), nil
}

// Reseeds 返回累计重播种次数（惰性重播种的可观测性）
func (c *VerifierContext) Reseeds() uint64 {
	return c.reseeds
}

// release 释放上下文占用的全部资源
func (c *VerifierContext) release() {
	if c.vm != nil {
		c.vm.Destroy()
		c.vm = nil
	}
	c.cache.Release()
}

// PoolConfig 验证池配置
type PoolConfig struct {
	// Mode 引擎规格模式（零值为生产规格；测试传 rx.ModeTest）
	Mode rx.Mode

	// Flags 引擎加速标志，FlagDefault 表示按CPU特性自动探测
	Flags rx.Flags

	// Size 池容量；0 表示按 min(CPU核数, 空闲内存/单上下文占用) 自动计算
	Size int
}

// ContextPool 固定容量的阻塞式验证上下文池
type ContextPool struct {
	mu       sync.Mutex
	cond     *sync.Cond
	contexts []*VerifierContext
	size     int
	closed   bool
	logger   log.Logger
}

// NewContextPool 构造验证池并急切分配全部上下文
//
// 自动容量 = min(CPU核数, 空闲物理内存/单上下文占用)，保证池永不
// 超售内存。容量为零或任何一个上下文分配失败都是构造错误，
// 绝不留下部分可用的池。
func NewContextPool(cfg PoolConfig, logger log.Logger) (*ContextPool, error) {
	if logger == nil {
		return nil, fmt.Errorf("日志记录器不能为空")
	}

	flags := cfg.Flags
	if flags == rx.FlagDefault {
		flags = rx.DetectFlags()
	}

	size := cfg.Size
	if size <= 0 {
		freeMem := memory.FreeMemory()
		footprint := rx.ContextFootprint(cfg.Mode)
		size = runtime.NumCPU()
		if byMem := int(freeMem / footprint); byMem < size {
			size = byMem
		}
		logger.Infof("验证池自动容量: cpu=%d 空闲内存=%d 单上下文=%d → 容量=%d",
			runtime.NumCPU(), freeMem, footprint, size)
	}
	if size <= 0 {
		return nil, fmt.Errorf("空闲物理内存不足以分配任何验证上下文")
	}

	p := &ContextPool{
		contexts: make([]*VerifierContext, 0, size),
		size:     size,
		logger:   logger,
	}
	p.cond = sync.NewCond(&p.mu)

	for i := 0; i < size; i++ {
		ctx, err := newVerifierContext(cfg.Mode, flags)
		if err != nil {
			// 快速失败：回收已分配的上下文，整体报错
			for _, c := range p.contexts {
				c.release()
			}
			return nil, fmt.Errorf("验证池构造失败（第%d个上下文）: %w", i+1, err)
		}
		p.contexts = append(p.contexts, ctx)
	}

	powPoolCapacity.Set(float64(size))
	return p, nil
}

// Checkout 借出一个上下文，池空时阻塞直到有上下文归还
func (p *ContextPool) Checkout() *VerifierContext {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.contexts) == 0 {
		p.cond.Wait()
	}
	n := len(p.contexts) - 1
	ctx := p.contexts[n]
	p.contexts = p.contexts[:n]
	powPoolAvailable.Set(float64(n))
	return ctx
}

// Checkin 归还一个上下文并唤醒一个等待者，永不阻塞
func (p *ContextPool) Checkin(ctx *VerifierContext) {
	p.mu.Lock()
	p.contexts = append(p.contexts, ctx)
	powPoolAvailable.Set(float64(len(p.contexts)))
	p.mu.Unlock()
	p.cond.Signal()
}

// Available 返回当前可借出的上下文数
func (p *ContextPool) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.contexts)
}

// Size 返回池的固定容量
func (p *ContextPool) Size() int {
	return p.size
}

// Close 释放池内全部上下文
//
// 前置条件：所有上下文均已归还。存在未归还的上下文时拒绝关闭
// 并返回错误，避免释放仍被借出者使用的内存。
func (p *ContextPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	if len(p.contexts) != p.size {
		return fmt.Errorf("验证池关闭失败: 仍有 %d 个上下文未归还", p.size-len(p.contexts))
	}
	for _, c := range p.contexts {
		c.release()
	}
	p.contexts = nil
	p.closed = true
	return nil
}
