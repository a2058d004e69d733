package infra_test

import (
	"errors"
	"testing"
	"time"

	"stockcocina/internal/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("timeout")

func TestCircuitBreaker_AbreTrasFallosConsecutivos(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour})

	assert.ErrorIs(t, cb.Execute(func() error { return errBackend }), errBackend)
	assert.Equal(t, infra.CBClosed, cb.State())
	assert.ErrorIs(t, cb.Execute(func() error { return errBackend }), errBackend)
	assert.Equal(t, infra.CBOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_ExitoReiniciaContador(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour})

	_ = cb.Execute(func() error { return errBackend })
	require.NoError(t, cb.Execute(func() error { return nil }))
	_ = cb.Execute(func() error { return errBackend })
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreaker_MedioAbiertoCierraTrasExitos(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 2,
		OpenTimeout:      10 * time.Millisecond,
	})
	_ = cb.Execute(func() error { return errBackend })
	require.Equal(t, infra.CBOpen, cb.State())

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, infra.CBHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, infra.CBHalfOpen, cb.State())
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, infra.CBClosed, cb.State())
}

func TestCircuitBreaker_SondaFallidaReabre(t *testing.T) {
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 1, OpenTimeout: 10 * time.Millisecond})
	_ = cb.Execute(func() error { return errBackend })
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, infra.CBHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errBackend })
	st := cb.Stats()
	assert.Equal(t, "open", st.State)
	assert.Equal(t, "backend", st.Name)
}

func TestCircuitBreaker_ErroresIgnoradosNoCuentan(t *testing.T) {
	noEncontrado := errors.New("record not found")
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{
		FailureThreshold: 1,
		EsFallo:          func(err error) bool { return !errors.Is(err, noEncontrado) },
	})

	err := cb.Execute(func() error { return noEncontrado })
	assert.ErrorIs(t, err, noEncontrado)
	assert.Equal(t, infra.CBClosed, cb.State())
	assert.Equal(t, 0, cb.Stats().FailureCount)
}
