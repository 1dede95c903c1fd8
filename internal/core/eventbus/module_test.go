package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/couriernet/go-courier/config"
	pkgif "github.com/couriernet/go-courier/pkg/interfaces"
	"github.com/couriernet/go-courier/pkg/types"
)

// TestModule_ProvidesBus 测试 Fx 装配出可用的事件总线
func TestModule_ProvidesBus(t *testing.T) {
	var bus pkgif.EventBus
	app := fx.New(
		fx.NopLogger,
		fx.Supply(config.NewConfig()),
		Module(),
		fx.Invoke(func(b pkgif.EventBus) { bus = b }),
	)
	require.NoError(t, app.Err())
	require.NotNil(t, bus)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))
	defer func() { _ = app.Stop(ctx) }()

	sub := bus.SubscribeCircuit()
	defer sub.Close()

	bus.PublishCircuit(types.CircuitEvent{Resource: "tcp", Kind: types.CircuitOpened})
	select {
	case evt := <-sub.Out():
		assert.Equal(t, "tcp", evt.Resource)
	case <-time.After(time.Second):
		t.Fatal("装配的总线未分发事件")
	}
}
