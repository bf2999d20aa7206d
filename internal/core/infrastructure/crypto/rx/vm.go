package rx

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// VM 绑定到Cache或Dataset的哈希执行状态
//
// 轻模式（绑定Cache）按需推导条目，验证路径使用；
// 全内存模式（绑定Dataset）直接查表，挖矿路径使用。
// 两种模式对相同密钥+输入产生完全一致的哈希。
// VM 不做内部同步，持有者负责互斥。
type VM struct {
	cache     *Cache
	dataset   *Dataset
	itemCount uint64
}

// NewVM 创建VM，cache与dataset二选一
//
// 绑定Dataset时必须携带 FlagFullMem（与引擎的C接口约定一致）。
func NewVM(flags Flags, cache *Cache, dataset *Dataset) (*VM, error) {
	switch {
	case cache != nil && dataset != nil:
		return nil, fmt.Errorf("vm创建失败: cache与dataset只能绑定其一")
	case dataset != nil:
		if !flags.Has(FlagFullMem) {
			return nil, fmt.Errorf("vm创建失败: 绑定dataset需要FlagFullMem标志")
		}
		if dataset.data == nil {
			return nil, fmt.Errorf("vm创建失败: dataset已释放")
		}
		return &VM{dataset: dataset, itemCount: dataset.ItemCount()}, nil
	case cache != nil:
		if !cache.Initialized() {
			return nil, fmt.Errorf("vm创建失败: cache未播种")
		}
		return &VM{cache: cache, itemCount: DatasetItemCount(cache.Mode())}, nil
	default:
		return nil, fmt.Errorf("vm创建失败: 必须绑定cache或dataset")
	}
}

// CalcHash 计算输入的内存困难哈希
func (vm *VM) CalcHash(input []byte) [32]byte {
	seed := blake2b.Sum512(input)
	mix := seed
	for r := 0; r < vmRounds; r++ {
		j := binary.LittleEndian.Uint64(mix[:8]) % vm.itemCount
		if vm.dataset != nil {
			blk := vm.dataset.item(j)
			for k := 0; k < ItemSize; k++ {
				mix[k] ^= blk[k]
			}
		} else {
			item := vm.cache.Item(j)
			for k := 0; k < ItemSize; k++ {
				mix[k] ^= item[k]
			}
		}
		mix = blake2b.Sum512(mix[:])
	}

	var final [128]byte
	copy(final[:64], seed[:])
	copy(final[64:], mix[:])
	return blake2b.Sum256(final[:])
}

// Destroy 解除VM与底层结构的绑定
//
// 不释放底层Cache/Dataset，它们的生命周期由持有者管理。
func (vm *VM) Destroy() {
	vm.cache = nil
	vm.dataset = nil
}
