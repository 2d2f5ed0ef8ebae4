package rpc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/superclaude/superclaude/internal/models"
)

func TestCodecIsRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestCodecCarriesEvents(t *testing.T) {
	ev := models.NewEvent("exec-1", &models.StateChanged{
		OldState: models.StatePending,
		NewState: models.StateRunning,
		Reason:   "Execution started",
	})

	data, err := Codec{}.Marshal(&ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"state_changed"`)

	var got models.AgentEvent
	require.NoError(t, Codec{}.Unmarshal(data, &got))
	assert.Equal(t, models.EventStateChanged, got.Type)
	require.NotNil(t, got.StateChanged)
	assert.Equal(t, models.StateRunning, got.StateChanged.NewState)
	assert.True(t, ev.Timestamp.Equal(got.Timestamp))
}

func TestCodecProtoMessages(t *testing.T) {
	data, err := Codec{}.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))

	require.NoError(t, Codec{}.Unmarshal(data, &emptypb.Empty{}))
	require.NoError(t, Codec{}.Unmarshal(nil, &PingResponse{}))
}

func TestCodecRejectsGarbage(t *testing.T) {
	err := Codec{}.Unmarshal([]byte("{"), &PingResponse{UptimeSince: time.Now()})
	assert.Error(t, err)
}
