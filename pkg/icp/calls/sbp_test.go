package calls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestSBPVersionInfo_MatchingMajorIsCompatible(t *testing.T) {
	d, sessions, _ := newTestDispatcher(t)
	s := sessions.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")

	req, _ := structpb.NewStruct(map[string]any{
		"sessionId": float64(s.ID),
		"vMajor":    float64(protocolVersionMajor),
		"vMinor":    float64(0),
	})

	call := &SBPVersionInfo{}
	require.NoError(t, call.DecodeRequest(req))
	respondNow := call.Prepare(d)

	assert.True(t, respondNow)
	assert.True(t, s.SBPCompatible)
	assert.Equal(t, uint32(0), call.Status())
}

func TestSBPVersionInfo_MismatchedMajorIsIncompatible(t *testing.T) {
	d, sessions, _ := newTestDispatcher(t)
	s := sessions.Create("alice", "CORP", "alice", "CORP", "ws-1", "rdp")
	s.SBPCompatible = true

	req, _ := structpb.NewStruct(map[string]any{
		"sessionId": float64(s.ID),
		"vMajor":    float64(protocolVersionMajor + 1),
		"vMinor":    float64(0),
	})

	call := &SBPVersionInfo{}
	require.NoError(t, call.DecodeRequest(req))
	call.Prepare(d)

	assert.False(t, s.SBPCompatible)
}

func TestSBPVersionInfo_UnknownSessionFails(t *testing.T) {
	d, _, _ := newTestDispatcher(t)

	req, _ := structpb.NewStruct(map[string]any{"sessionId": float64(999), "vMajor": float64(2)})
	call := &SBPVersionInfo{}
	require.NoError(t, call.DecodeRequest(req))
	call.Prepare(d)

	assert.Equal(t, uint32(1), call.Status())
}
