package events_test

import (
	"testing"
	"time"

	"github.com/aretw0/lao/pkg/domain"
	"github.com/aretw0/lao/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_FanOutPerWorkflow(t *testing.T) {
	h := events.NewHub()

	a1, unsubA1 := h.Subscribe("wf-a")
	a2, unsubA2 := h.Subscribe("wf-a")
	b, unsubB := h.Subscribe("wf-b")
	defer unsubA2()
	defer unsubB()

	assert.Equal(t, 2, h.Subscribers("wf-a"))

	h.Broadcast("wf-a", nodeEvent("n1", domain.StatusSuccess))

	for _, ch := range []<-chan domain.Event{a1, a2} {
		select {
		case e := <-ch:
			assert.Equal(t, "n1", e.Node.NodeID)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
	select {
	case <-b:
		t.Fatal("event leaked to another workflow")
	default:
	}

	unsubA1()
	unsubA1()
	assert.Equal(t, 1, h.Subscribers("wf-a"))
	_, ok := <-a1
	assert.False(t, ok, "channel closed on unsubscribe")
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	h := events.NewHub(events.WithBuffer(2))
	ch, unsub := h.Subscribe("wf")
	defer unsub()

	for i := 0; i < 5; i++ {
		h.Broadcast("wf", nodeEvent("n", domain.StatusRunning))
	}
	assert.Len(t, ch, 2)
}

func TestHub_Forward(t *testing.T) {
	h := events.NewHub()
	ch, unsub := h.Subscribe("wf")
	defer unsub()

	s := events.NewStream()
	s.Publish(nodeEvent("a", domain.StatusRunning))
	s.Publish(domain.NewWorkflowEvent(&domain.WorkflowEvent{Success: true}))
	s.Close()

	h.Forward("wf", s.C())

	require.Len(t, ch, 2)
	first := <-ch
	second := <-ch
	assert.Equal(t, domain.EventNodeStatus, first.Type)
	assert.Equal(t, domain.EventWorkflowCompleted, second.Type)
	assert.True(t, second.Workflow.Success)
}
