package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNatsSendRecv(t *testing.T) {
	ns, err := NewEmbeddedNats(EmbeddedOptions{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	defer ns.Shutdown()

	b, err := ConnectNats(ns.ClientURL())
	require.NoError(t, err)
	defer b.Close()

	ch := b.Recv("video.created")
	assert.Equal(t, ch, b.Recv("video.created"))

	require.NoError(t, b.Send("video.created", []byte(`{"type":"video.created"}`)))
	assert.Equal(t, []byte(`{"type":"video.created"}`), recvOne(t, ch))
}

func TestNatsEventStream(t *testing.T) {
	ns, err := NewEmbeddedNats(EmbeddedOptions{Host: "127.0.0.1", Port: -1, StoreDir: t.TempDir()})
	require.NoError(t, err)
	defer ns.Shutdown()

	b, err := ConnectNats(ns.ClientURL())
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.EnsureStream())
	// second call finds the existing stream
	require.NoError(t, b.EnsureStream())

	require.NoError(t, b.Send("video.deleted", []byte(`{"id":"v-001"}`)))
	require.NoError(t, b.nc.Flush())

	js, err := b.nc.JetStream()
	require.NoError(t, err)

	msg, err := js.GetLastMsg(EventStream, "video.deleted")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"id":"v-001"}`), msg.Data)

	_, err = js.GetLastMsg(EventStream, "video.created")
	assert.Error(t, err)
}

func TestNatsStreamNeedsJetStream(t *testing.T) {
	ns, err := NewEmbeddedNats(EmbeddedOptions{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	defer ns.Shutdown()

	b, err := ConnectNats(ns.ClientURL())
	require.NoError(t, err)
	defer b.Close()

	assert.Error(t, b.EnsureStream())
}
