package tasks

import (
	"testing"

	"github.com/ogon-project/sessionmgr/pkg/config"
	"github.com/ogon-project/sessionmgr/pkg/connection"
	"github.com/ogon-project/sessionmgr/pkg/executor"
	"github.com/ogon-project/sessionmgr/pkg/session"
	"github.com/stretchr/testify/require"
)

// newTestContext returns a Context wired with fresh in-memory stores and no
// Dispatcher; tests that need one construct it themselves over a net.Pipe.
func newTestContext(t *testing.T) (*Context, *session.Store) {
	t.Helper()
	sessions := session.NewStore()
	connections := connection.NewStore()
	properties, err := config.Load("")
	require.NoError(t, err)
	registry := executor.NewRegistry(sessions)

	return &Context{
		Sessions:    sessions,
		Connections: connections,
		Properties:  properties,
		Executors:   registry,
	}, sessions
}
