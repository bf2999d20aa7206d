package rx

import "golang.org/x/sys/cpu"

// Flags 引擎加速标志位
//
// 除 FlagFullMem（选择Dataset路径）外，所有标志仅作为加速提示，
// 绝不改变哈希输出。
type Flags uint32

const (
	// FlagDefault 无标志
	FlagDefault Flags = 0
	// FlagJIT 即时编译提示（Go实现中恒为提示，无语义）
	FlagJIT Flags = 1 << 0
	// FlagFullMem VM绑定全量Dataset（挖矿模式）
	FlagFullMem Flags = 1 << 1
	// FlagArgon2SSSE3 Argon2 SSSE3加速提示
	FlagArgon2SSSE3 Flags = 1 << 2
	// FlagArgon2AVX2 Argon2 AVX2加速提示
	FlagArgon2AVX2 Flags = 1 << 3
)

// Has 判断是否包含指定标志位
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

// DetectFlags 根据CPU特性返回推荐的加速标志
//
// 非x86平台上特性探测结果为假，返回的标志退化为 FlagJIT。
func DetectFlags() Flags {
	f := FlagJIT
	if cpu.X86.HasAVX2 {
		f |= FlagArgon2AVX2
	}
	if cpu.X86.HasSSSE3 {
		f |= FlagArgon2SSSE3
	}
	return f
}
