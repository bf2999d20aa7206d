// Package log 提供日志模块的配置选项
//
// 与其他 internal/config 子包一致，本包只定义纯配置结构体与默认值，
// 不包含任何日志实现逻辑（实现位于 internal/core/infrastructure/log）。
package log

// Options 日志配置选项
type Options struct {
	// Level 日志级别：debug | info | warn | error
	Level string `json:"level"`

	// Console 是否同时输出到控制台
	Console bool `json:"console"`

	// Filename 日志文件路径（为空表示不写文件，仅控制台输出）
	Filename string `json:"filename"`

	// MaxSizeMB 单个日志文件的最大体积（MB），超过后轮转
	MaxSizeMB int `json:"max_size_mb"`

	// MaxBackups 轮转后保留的旧文件个数
	MaxBackups int `json:"max_backups"`

	// MaxAgeDays 旧日志文件的最长保留天数
	MaxAgeDays int `json:"max_age_days"`

	// Compress 是否压缩轮转出的旧日志
	Compress bool `json:"compress"`
}

// New 创建日志配置，nil 输入返回默认配置
func New(opts *Options) *Options {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Level == "" {
		opts.Level = "info"
	}
	if opts.Filename == "" {
		// 默认仅控制台输出
		opts.Console = true
	}
	if opts.MaxSizeMB <= 0 {
		opts.MaxSizeMB = 100
	}
	if opts.MaxBackups <= 0 {
		opts.MaxBackups = 10
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = 30
	}
	return opts
}
