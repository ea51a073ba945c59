package grpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type sample struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestJSONCodec_Registered(t *testing.T) {
	codec := encoding.GetCodec(JSONCodecName)
	require.NotNil(t, codec)
	assert.Equal(t, JSONCodecName, codec.Name())
}

func TestJSONCodec_PlainStruct(t *testing.T) {
	c := jsonCodec{}
	data, err := c.Marshal(&sample{ID: 1001, Name: "Ada"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1001,"name":"Ada"}`, string(data))

	var out sample
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, sample{ID: 1001, Name: "Ada"}, out)
}

func TestJSONCodec_ProtoMessage(t *testing.T) {
	c := jsonCodec{}
	data, err := c.Marshal(&emptypb.Empty{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	data, err = c.Marshal(wrapperspb.String("kr"))
	require.NoError(t, err)
	assert.JSONEq(t, `"kr"`, string(data))

	out := &wrapperspb.StringValue{}
	require.NoError(t, c.Unmarshal(data, out))
	assert.Equal(t, "kr", out.GetValue())
}

func TestPool_ReusesConnection(t *testing.T) {
	p := NewPool(WithJSONCodec())
	defer p.Close()

	a, err := p.GetConnection("passthrough:///localhost:1")
	require.NoError(t, err)
	b, err := p.GetConnection("passthrough:///localhost:1")
	require.NoError(t, err)
	assert.Same(t, a, b)

	require.NoError(t, p.Close())
	c, err := p.GetConnection("passthrough:///localhost:1")
	require.NoError(t, err)
	assert.NotSame(t, a, c)
}

func TestPool_ReplacesClosedConnection(t *testing.T) {
	p := NewPool()
	defer p.Close()

	a, err := p.GetConnection("passthrough:///localhost:2")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := p.GetConnection("passthrough:///localhost:2")
	require.NoError(t, err)
	assert.NotSame(t, a, b)
}
