package calls

import (
	"testing"

	"github.com/ogon-project/sessionmgr/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestEndSession_RemovesSessionOnSuccess(t *testing.T) {
	d, sessions, _ := newTestDispatcher(t)
	s := sessions.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")
	exec := d.Executors.StartFor(s.ID)
	defer exec.Stop()

	req, _ := structpb.NewStruct(map[string]any{"sessionId": float64(s.ID)})
	call := &EndSession{}
	require.NoError(t, call.DecodeRequest(req))

	acc := session.NewAccessor()
	acc.Bind(s)
	call.DoStuff(d, acc)
	acc.Unbind()

	resp, err := call.EncodeResponse()
	require.NoError(t, err)
	assert.True(t, resp.Fields["success"].GetBoolValue())
	assert.Nil(t, sessions.Get(s.ID))
}

func TestEndSession_NilAccessorFails(t *testing.T) {
	d, _, _ := newTestDispatcher(t)
	call := &EndSession{}
	require.NoError(t, call.DecodeRequest(&structpb.Struct{}))
	call.DoStuff(d, nil)
	assert.Equal(t, uint32(1), call.Status())
}
