package serve_test

import (
	"testing"

	"fjacquet/bankflow/cmd/serve"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCommand_Metadata(t *testing.T) {
	assert.Equal(t, "serve", serve.Cmd.Use)
	assert.Contains(t, serve.Cmd.Short, "HTTP API")
	assert.NotNil(t, serve.Cmd.RunE)
}

func TestServeCommand_Flags(t *testing.T) {
	addrFlag := serve.Cmd.Flags().Lookup("address")
	require.NotNil(t, addrFlag)
	assert.Equal(t, "a", addrFlag.Shorthand)
	assert.Equal(t, "", addrFlag.DefValue)

	limitFlag := serve.Cmd.Flags().Lookup("body-limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "33554432", limitFlag.DefValue)
}
