package rendezvous

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamware/grocerfleet/internal/fleet"
)

func ack(orderID, robotID string) fleet.Acknowledgement {
	return fleet.Acknowledgement{
		OrderID: orderID,
		RobotID: robotID,
		Aisle:   "dairy",
		Status:  fleet.StatusOK,
	}
}

func TestAwaitReachesQuorum(t *testing.T) {
	tr := NewTracker()
	tr.Begin("o1")

	done := make(chan struct{})
	var acks []fleet.Acknowledgement
	var complete bool
	go func() {
		acks, complete = tr.Await("o1", 3, 2*time.Second)
		close(done)
	}()

	for i := 1; i <= 3; i++ {
		tr.Record("o1", fmt.Sprintf("robot_%d", i), ack("o1", fmt.Sprintf("robot_%d", i)))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("await did not wake after quorum")
	}

	assert.True(t, complete)
	assert.Len(t, acks, 3)
	assert.Equal(t, 0, tr.Len(), "bucket should be consumed")
}

func TestAwaitTimesOutWithPartialSet(t *testing.T) {
	tr := NewTracker()
	tr.Begin("o1")
	tr.Record("o1", "robot_1", ack("o1", "robot_1"))
	tr.Record("o1", "robot_2", ack("o1", "robot_2"))

	start := time.Now()
	acks, complete := tr.Await("o1", 5, 100*time.Millisecond)

	assert.False(t, complete)
	assert.Len(t, acks, 2, "timeout must return everything recorded so far")
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 0, tr.Len(), "bucket removed on timeout too")
}

func TestDuplicateRobotOverwrites(t *testing.T) {
	tr := NewTracker()
	tr.Begin("o1")

	first := ack("o1", "robot_1")
	first.Message = "first"
	second := ack("o1", "robot_1")
	second.Message = "second"

	tr.Record("o1", "robot_1", first)
	tr.Record("o1", "robot_1", second)

	acks, complete := tr.Await("o1", 1, time.Second)
	require.True(t, complete)
	require.Len(t, acks, 1, "same robot must not double-count")
	assert.Equal(t, "second", acks[0].Message)
}

func TestRecordBeforeBeginIsAccepted(t *testing.T) {
	tr := NewTracker()

	// A late or early report for an untracked order must not be dropped.
	tr.Record("ghost", "robot_1", ack("ghost", "robot_1"))
	assert.Equal(t, 1, tr.Len())

	// An eventual await for that id consumes the orphan bucket.
	acks, complete := tr.Await("ghost", 1, time.Second)
	assert.True(t, complete)
	assert.Len(t, acks, 1)
	assert.Equal(t, 0, tr.Len())
}

func TestOrdersAreIndependent(t *testing.T) {
	tr := NewTracker()
	tr.Begin("a")
	tr.Begin("b")

	var wg sync.WaitGroup
	results := make([]bool, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = tr.Await("a", 2, time.Second)
	}()
	go func() {
		defer wg.Done()
		_, results[1] = tr.Await("b", 2, 200*time.Millisecond)
	}()

	// Only order "a" reaches quorum; its reports must not wake "b" into
	// completion.
	tr.Record("a", "robot_1", ack("a", "robot_1"))
	tr.Record("a", "robot_2", ack("a", "robot_2"))
	wg.Wait()

	assert.True(t, results[0], "order a should complete")
	assert.False(t, results[1], "order b should time out")
}

func TestConcurrentRecorders(t *testing.T) {
	tr := NewTracker()
	tr.Begin("o1")

	const fleetSize = 50
	done := make(chan struct{})
	var acks []fleet.Acknowledgement
	var complete bool
	go func() {
		acks, complete = tr.Await("o1", fleetSize, 5*time.Second)
		close(done)
	}()

	var wg sync.WaitGroup
	for i := 0; i < fleetSize; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("robot_%d", i)
			tr.Record("o1", id, ack("o1", id))
		}(i)
	}
	wg.Wait()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("await did not complete")
	}
	require.True(t, complete)
	assert.Len(t, acks, fleetSize)
}

func TestLateRecordAfterTimeoutIsOrphaned(t *testing.T) {
	tr := NewTracker()
	tr.Begin("o1")

	_, complete := tr.Await("o1", 1, 50*time.Millisecond)
	require.False(t, complete)

	// The waiter is gone; the late ack lands in a fresh orphan bucket and is
	// simply never observed.
	tr.Record("o1", "robot_1", ack("o1", "robot_1"))
	assert.Equal(t, 1, tr.Len())
}
