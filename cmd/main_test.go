package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidateConfig(t *testing.T) {
	valid := config{
		PublicEndpoint:    "http://localhost:4000",
		SphereDepth:       20,
		PlaneDepth:        0,
		MaxTrixelListing:  4096,
		ClientIdleTimeout: time.Minute,
	}
	require.NoError(t, validateConfig(valid))

	tests := []struct {
		scenario string
		update   func(*config)
	}{
		{
			scenario: "invalid public endpoint",
			update:   func(c *config) { c.PublicEndpoint = "localhost" },
		},
		{
			scenario: "sphere depth too large",
			update:   func(c *config) { c.SphereDepth = 26 },
		},
		{
			scenario: "negative plane depth",
			update:   func(c *config) { c.PlaneDepth = -1 },
		},
		{
			scenario: "negative listing limit",
			update:   func(c *config) { c.MaxTrixelListing = -1 },
		},
		{
			scenario: "no idle timeout",
			update:   func(c *config) { c.ClientIdleTimeout = 0 },
		},
	}

	for _, test := range tests {
		t.Run(test.scenario, func(t *testing.T) {
			conf := valid
			test.update(&conf)
			require.Error(t, validateConfig(conf))
		})
	}
}
