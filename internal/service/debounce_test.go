package service_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"stockcocina/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgramador_ReemplazoNoDispara(t *testing.T) {
	p := service.NewProgramador(30 * time.Millisecond)
	key := uuid.New()
	var primera, segunda atomic.Int32

	p.Programar(key, func(context.Context) { primera.Add(1) })
	p.Programar(key, func(context.Context) { segunda.Add(1) })

	require.Eventually(t, func() bool { return segunda.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), primera.Load())
	assert.False(t, p.Pendiente(key))
}

func TestProgramador_Cancelar(t *testing.T) {
	p := service.NewProgramador(20 * time.Millisecond)
	key := uuid.New()
	var n atomic.Int32

	p.Programar(key, func(context.Context) { n.Add(1) })
	assert.True(t, p.Pendiente(key))
	assert.True(t, p.Cancelar(key))
	assert.False(t, p.Cancelar(key))

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), n.Load())
}

func TestProgramador_ClavesIndependientes(t *testing.T) {
	p := service.NewProgramador(time.Hour)
	var n atomic.Int32
	for i := 0; i < 3; i++ {
		p.Programar(uuid.New(), func(context.Context) { n.Add(1) })
	}

	p.Flush(context.Background())
	assert.Equal(t, int32(3), n.Load())

	p.Flush(context.Background())
	assert.Equal(t, int32(3), n.Load(), "flushed tasks do not run twice")
}
