package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/oggyb/approach/internal/notify"
)

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodecV2(CodecName)
	require.NotNil(t, c)
	assert.Equal(t, CodecName, c.Name())
}

func TestCodec_ProtoMessagesUseProtoJSON(t *testing.T) {
	var c jsonCodec

	ts := timestamppb.New(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	raw, err := c.Marshal(ts)
	require.NoError(t, err)
	assert.JSONEq(t, `"2025-03-01T12:00:00Z"`, string(raw))

	got := &timestamppb.Timestamp{}
	require.NoError(t, c.Unmarshal(raw, got))
	assert.True(t, got.AsTime().Equal(ts.AsTime()))

	raw, err = c.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
	// unknown fields from a newer peer are ignored
	assert.NoError(t, c.Unmarshal([]byte(`{"extra":1}`), &emptypb.Empty{}))
}

func TestCodec_PlainStructsUseJSONTags(t *testing.T) {
	var c jsonCodec

	raw, err := c.Marshal(&RespondRequest{RequestID: "r1", Status: "accepted"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"request_id":"r1","status":"accepted"}`, string(raw))

	var ev notify.Event
	require.NoError(t, c.Unmarshal([]byte(`{"table":"threads","type":"insert","row_id":"t1","at":"2025-03-01T12:00:00Z"}`), &ev))
	assert.Equal(t, "threads", ev.Table)
	assert.Equal(t, notify.Insert, ev.Type)
	assert.Equal(t, "t1", ev.RowID)
}

func TestPublicMethods(t *testing.T) {
	assert.True(t, PublicMethods["/approach.v1.AuthService/SignIn"])
	assert.False(t, PublicMethods["/approach.v1.AuthService/SignOut"])
	assert.False(t, PublicMethods["/approach.v1.RequestService/Respond"])
}
