package pow

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"

	"github.com/jibuji/bitbi/internal/core/infrastructure/crypto/rx"
	corelog "github.com/jibuji/bitbi/internal/core/infrastructure/log"
)

func newTestPool(t *testing.T, size int) *ContextPool {
	t.Helper()
	pool, err := NewContextPool(PoolConfig{Mode: rx.ModeTest, Size: size}, corelog.NewNop())
	require.NoError(t, err)
	return pool
}

func TestContextPoolCheckoutCheckin(t *testing.T) {
	pool := newTestPool(t, 2)
	require.Equal(t, 2, pool.Size())
	require.Equal(t, 2, pool.Available())

	a := pool.Checkout()
	b := pool.Checkout()
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.Equal(t, 0, pool.Available())

	pool.Checkin(a)
	pool.Checkin(b)
	require.Equal(t, 2, pool.Available())
	require.NoError(t, pool.Close())
}

// TestContextPoolCheckoutBlocks 池空时Checkout阻塞，归还后被唤醒
func TestContextPoolCheckoutBlocks(t *testing.T) {
	pool := newTestPool(t, 1)
	held := pool.Checkout()

	got := make(chan *VerifierContext, 1)
	go func() {
		got <- pool.Checkout()
	}()

	select {
	case <-got:
		t.Fatal("池空时Checkout不应返回")
	case <-time.After(50 * time.Millisecond):
	}

	pool.Checkin(held)
	select {
	case ctx := <-got:
		pool.Checkin(ctx)
	case <-time.After(2 * time.Second):
		t.Fatal("归还后等待者未被唤醒")
	}
	require.NoError(t, pool.Close())
}

// TestContextPoolLazyReseed 同一密钥重复Reinitialize是空操作
func TestContextPoolLazyReseed(t *testing.T) {
	pool := newTestPool(t, 1)
	defer pool.Close()

	ctx := pool.Checkout()
	defer pool.Checkin(ctx)

	// 未播种前计算哈希应报错
	_, err := ctx.CalcHash([]byte("input"))
	require.Error(t, err)

	key1 := chainhash.DoubleHashH([]byte("epoch-1"))
	require.NoError(t, ctx.Reinitialize(key1))
	require.Equal(t, uint64(1), ctx.Reseeds())

	require.NoError(t, ctx.Reinitialize(key1))
	require.Equal(t, uint64(1), ctx.Reseeds(), "相同密钥不应触发重播种")

	key2 := chainhash.DoubleHashH([]byte("epoch-2"))
	require.NoError(t, ctx.Reinitialize(key2))
	require.Equal(t, uint64(2), ctx.Reseeds())
}

// TestContextPoolHashDeterminism 不同上下文、相同密钥产出相同哈希
func TestContextPoolHashDeterminism(t *testing.T) {
	pool := newTestPool(t, 2)
	defer pool.Close()

	key := chainhash.DoubleHashH([]byte("epoch"))
	input := []byte("block header bytes")

	a := pool.Checkout()
	b := pool.Checkout()
	defer pool.Checkin(a)
	defer pool.Checkin(b)

	require.NoError(t, a.Reinitialize(key))
	require.NoError(t, b.Reinitialize(key))

	ha, err := a.CalcHash(input)
	require.NoError(t, err)
	hb, err := b.CalcHash(input)
	require.NoError(t, err)
	require.Equal(t, ha, hb)
}

// TestContextPoolClose 存在未归还上下文时拒绝关闭
func TestContextPoolClose(t *testing.T) {
	pool := newTestPool(t, 1)

	ctx := pool.Checkout()
	require.Error(t, pool.Close())

	pool.Checkin(ctx)
	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close(), "重复关闭应为空操作")
}

func TestContextPoolNilLogger(t *testing.T) {
	_, err := NewContextPool(PoolConfig{Mode: rx.ModeTest, Size: 1}, nil)
	require.Error(t, err)
}
