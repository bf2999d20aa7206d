// Package pow 提供POW模块的依赖注入装配
package pow

import (
	"go.uber.org/fx"

	consensusconfig "github.com/jibuji/bitbi/internal/config/consensus"
	"github.com/jibuji/bitbi/pkg/interfaces/infrastructure/crypto"
	log "github.com/jibuji/bitbi/pkg/interfaces/infrastructure/log"
)

// PowParams 定义POW模块的依赖参数
type PowParams struct {
	fx.In

	Logger      log.Logger
	ChainParams *consensusconfig.ChainParams
}

// PowOutput 定义POW模块的输出结构
type PowOutput struct {
	fx.Out

	POWEngine crypto.POWEngine
}

// Module 返回POW模块
func Module() fx.Option {
	return fx.Module("pow",
		fx.Provide(ProvidePOWEngine),
	)
}

// ProvidePOWEngine 提供POW引擎服务
func ProvidePOWEngine(lc fx.Lifecycle, params PowParams) (PowOutput, error) {
	engine, err := NewEngine(params.ChainParams, params.Logger, PoolConfig{})
	if err != nil {
		return PowOutput{}, err
	}

	lc.Append(fx.StopHook(func() error {
		return engine.Close()
	}))

	return PowOutput{POWEngine: engine}, nil
}
