package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishSoftReachesAllSubscribers(t *testing.T) {
	b := New()

	var got []string
	b.SubscribeSoft(func(sig Signal) { got = append(got, "a:"+sig.ListID) })
	b.SubscribeSoft(func(sig Signal) { got = append(got, "b:"+sig.ListID) })

	b.PublishSoft(Signal{ListID: "l1"})

	assert.ElementsMatch(t, []string{"a:l1", "b:l1"}, got)
}

func TestForceAndSoftChannelsAreIndependent(t *testing.T) {
	b := New()

	soft := 0
	force := 0
	b.SubscribeSoft(func(Signal) { soft++ })
	b.SubscribeForce(func(Signal) { force++ })

	b.PublishForce(Signal{})

	assert.Equal(t, 0, soft)
	assert.Equal(t, 1, force)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()

	calls := 0
	cancel := b.SubscribeSoft(func(Signal) { calls++ })

	b.PublishSoft(Signal{})
	cancel()
	b.PublishSoft(Signal{})

	assert.Equal(t, 1, calls)
}

func TestHandlerMaySubscribeDuringDelivery(t *testing.T) {
	b := New()

	late := 0
	b.SubscribeSoft(func(Signal) {
		b.SubscribeSoft(func(Signal) { late++ })
	})

	b.PublishSoft(Signal{})
	b.PublishSoft(Signal{})

	// The handler registered during the first publish only sees the second.
	assert.Equal(t, 1, late)
}
