package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetState(t *testing.T) {
	var m Manager
	assert.Equal(t, Starting, m.GetState())

	m.SetState(Recovering)
	assert.Equal(t, Recovering, m.GetState())
	assert.Equal(t, "Recovering", m.GetState().String())
	assert.Equal(t, "Unknown", State(42).String())
}

func TestGoFuncLimit(t *testing.T) {
	var m Manager

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(WGLIMIT)

	for i := 0; i < WGLIMIT; i++ {
		launched := m.GoFunc(func() {
			started.Done()
			<-release
		})
		assert.True(t, launched)
	}
	started.Wait()
	assert.Equal(t, WGLIMIT, m.Running())

	// over the limit, f is dropped
	ran := false
	assert.False(t, m.GoFunc(func() { ran = true }))
	assert.False(t, ran)
	assert.Equal(t, WGLIMIT, m.Running())

	close(release)
	m.WaitRoutines()
	assert.Equal(t, 0, m.Running())
}
