package feed

import (
	"testing"
	"time"

	"friendlist-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeed_PublishSubscribe(t *testing.T) {
	f := New(NewPubSub(), "", logger.NewNopLogger())
	defer f.Close()

	got := make(chan []byte, 4)
	unsubscribe, err := f.Subscribe(func(payload []byte) { got <- payload })
	require.NoError(t, err)

	require.NoError(t, f.Publish([]string{"Carbone"}))

	select {
	case payload := <-got:
		assert.JSONEq(t, `["Carbone"]`, string(payload))
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot not delivered")
	}

	unsubscribe()
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, f.Publish([]string{"Via Carota"}))

	select {
	case payload := <-got:
		t.Fatalf("unexpected delivery after unsubscribe: %s", payload)
	case <-time.After(200 * time.Millisecond):
	}
}
