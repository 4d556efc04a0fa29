package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewDefaultsTimeStep(t *testing.T) {
	e := New(0)
	assert.Equal(t, DefaultTimeStep, e.TimeStep())
	assert.InDelta(t, 900.0, e.TimeStepSeconds(), 1e-9)
}

func TestOutdoorAndTimeStep(t *testing.T) {
	e := New(10 * time.Minute)
	e.SetOutDryBulbTemp(32)
	assert.Equal(t, 32.0, e.OutDryBulbTemp())

	e.SetTimeStep(time.Minute)
	assert.InDelta(t, 60.0, e.TimeStepSeconds(), 1e-9)
}
