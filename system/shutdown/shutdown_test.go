package shutdown

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownWithError(t *testing.T) {
	var code = -1
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = osExit })

	ShutdownWithError(errors.New("boom"), "Run failed")
	assert.Equal(t, 1, code)

	Shutdown(0)
	assert.Equal(t, 0, code)
}

func TestShutdownRunsHooks(t *testing.T) {
	var order []string
	var code = -1
	exit = func(c int) {
		order = append(order, "exit")
		code = c
	}
	t.Cleanup(func() { exit = osExit })

	OnShutdown(func() error {
		order = append(order, "db")
		return nil
	})
	OnShutdown(func() error {
		order = append(order, "file")
		return errors.New("already closed")
	})

	ShutdownWithError(errors.New("boom"), "Run failed")
	assert.Equal(t, 1, code)
	assert.Equal(t, []string{"file", "db", "exit"}, order)

	// hooks run once
	order = nil
	Shutdown(0)
	assert.Equal(t, []string{"exit"}, order)
}
