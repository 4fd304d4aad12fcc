package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventKey(t *testing.T) {
	ev := Event{PlatformID: "doppus", TransactionID: "ord_1"}
	assert.Equal(t, "doppus:ord_1", ev.Key())
}

func TestRecorderKeepsOrder(t *testing.T) {
	var rec Recorder
	require.NoError(t, rec.Publish(context.Background(), Event{Type: TypeTransactionUpserted, TransactionID: "a"}))
	require.NoError(t, rec.Publish(context.Background(), Event{Type: TypeTransactionDeleted, TransactionID: "a"}))

	got := rec.Events()
	require.Len(t, got, 2)
	assert.Equal(t, TypeTransactionUpserted, got[0].Type)
	assert.Equal(t, TypeTransactionDeleted, got[1].Type)
}

func TestKafkaPublisherRequiresBrokers(t *testing.T) {
	_, err := NewKafkaPublisher("", "topic", nil)
	assert.Error(t, err)
}
