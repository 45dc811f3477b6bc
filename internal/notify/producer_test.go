package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers("a:9092, b:9092"))
	assert.Nil(t, ParseBrokers(""))
	assert.Nil(t, ParseBrokers(" , "))
}

func TestProducerNoopWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, "workflow-events", zap.NewNop())
	// Must not panic or block.
	p.Produce(context.Background(), "workflow.submitted", map[string]interface{}{"workflow_id": 1})
	assert.NoError(t, p.Close())
}
