package wsdiscovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, "239.255.255.250:3702", cfg.Target.String())
	assert.Equal(t, 40000, cfg.PortBase)
	assert.Equal(t, 20000, cfg.PortSpan)
	assert.False(t, cfg.StrictParse)
	assert.Positive(t, cfg.Parallelism)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "zero timeout", mutate: func(c *Config) { c.Timeout = 0 }},
		{name: "no target", mutate: func(c *Config) { c.Target = nil }},
		{name: "empty port span", mutate: func(c *Config) { c.PortSpan = 0 }},
		{name: "port range overflow", mutate: func(c *Config) { c.PortBase = 60000; c.PortSpan = 10000 }},
		{name: "zero buffer", mutate: func(c *Config) { c.BufferSize = 0 }},
		{name: "zero parallelism", mutate: func(c *Config) { c.Parallelism = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

			_, err := NewDiscoverer(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}
