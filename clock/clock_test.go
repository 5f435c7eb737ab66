package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockFiresInOrder(t *testing.T) {
	c := NewFake()
	var order []int

	c.ArmTimer(3*time.Second, func() { order = append(order, 3) })
	c.ArmTimer(1*time.Second, func() { order = append(order, 1) })
	c.ArmTimer(2*time.Second, func() { order = append(order, 2) })

	c.Advance(5 * time.Second)

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestFakeClockCancel(t *testing.T) {
	c := NewFake()
	fired := false
	timer := c.ArmTimer(1*time.Second, func() { fired = true })
	timer.Cancel()
	c.Advance(2 * time.Second)
	assert.False(t, fired)
}

func TestFakeClockRearmReplaces(t *testing.T) {
	c := NewFake()
	var fired string
	timer := c.ArmTimer(1*time.Second, func() { fired = "first" })
	timer.Cancel()
	c.ArmTimer(1*time.Second, func() { fired = "second" })
	c.Advance(1 * time.Second)
	assert.Equal(t, "second", fired)
}

func TestNowUSAdvances(t *testing.T) {
	c := NewFake()
	assert.Equal(t, uint64(0), c.NowUS())
	c.Advance(1500 * time.Microsecond)
	assert.Equal(t, uint64(1500), c.NowUS())
}
