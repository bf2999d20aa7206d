// Package rx 提供内存困难型（memory-hard）PoW哈希引擎
//
// 🧮 **哈希引擎组件 (Memory-hard Hash Engine)**
//
// 引擎由三种状态对象组成，生命周期互相独立：
// - Cache：由纪元密钥播种的紧凑内存结构，播种快、可反复重播种
// - Dataset：由Cache派生的全量内存结构，构建慢但单次哈希吞吐高
// - VM：绑定到一个Cache（轻模式）或一个Dataset（全内存模式）的执行状态
//
// 🎯 **核心不变量**：
// - 确定性：相同密钥+输入在任何平台产生相同哈希
// - 轻/全等价：绑定Cache的VM与绑定同密钥Dataset的VM输出一致
// - 加速标志（JIT/AVX2/SSSE3）只是提示，除FlagFullMem外不影响哈希输出
//
// 状态对象一旦被某个持有者（验证池槽位或矿工实例）占用，就不允许并发共享。
package rx

// Mode 引擎规格模式
//
// ModeNormal 为生产规格（256MiB Cache / 2080MiB Dataset）；
// ModeTest 为单元测试规格，结构与算法完全相同，只缩小内存占用。
type Mode int

const (
	// ModeNormal 生产规格
	ModeNormal Mode = iota
	// ModeTest 测试规格（小内存，算法不变）
	ModeTest
)

// ItemSize Dataset条目的固定字节数
const ItemSize = 64

const (
	normalCacheBytes = 256 << 20 // 256 MiB
	testCacheBytes   = 64 << 10  // 64 KiB

	normalDatasetItems = (2080 << 20) / ItemSize
	testDatasetItems   = 2048
)

// Argon2 播种参数（共识常量，不可调整）
const (
	argonTime  = 3
	argonLanes = 1
	seedLen    = 64
)

// argonSalt Cache播种使用的固定盐值（共识常量）
var argonSalt = []byte("BitbiRx\x01")

// 哈希算法轮数（共识常量）
const (
	// itemRounds 生成单个Dataset条目的混合轮数
	itemRounds = 8
	// vmRounds 单次哈希的条目访问轮数
	vmRounds = 64
)

// CacheBytes 返回指定模式下Cache的字节数
func CacheBytes(mode Mode) uint64 {
	if mode == ModeTest {
		return testCacheBytes
	}
	return normalCacheBytes
}

// DatasetItemCount 返回指定模式下Dataset的条目数
func DatasetItemCount(mode Mode) uint64 {
	if mode == ModeTest {
		return testDatasetItems
	}
	return normalDatasetItems
}

// ContextFootprint 返回单个验证上下文（Cache+VM）的近似内存占用，
// 供验证池在构造时计算容量上限。
func ContextFootprint(mode Mode) uint64 {
	return CacheBytes(mode)
}
