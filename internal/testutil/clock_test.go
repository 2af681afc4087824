package testutil

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeterministicClock_Steps(t *testing.T) {
	c := NewDeterministicClock(time.Minute)

	assert.Equal(t, Epoch, c.Now())
	assert.Equal(t, Epoch.Add(time.Minute), c.Now())
	assert.Equal(t, Epoch.Add(2*time.Minute), c.Current())
}

func TestDeterministicClock_DefaultStep(t *testing.T) {
	c := NewDeterministicClock(0)
	c.Now()
	assert.Equal(t, Epoch.Add(time.Second), c.Now())
}

func TestDeterministicClock_Reset(t *testing.T) {
	c := NewDeterministicClock(time.Second)
	c.Now()
	c.Now()
	c.Reset()
	assert.Equal(t, Epoch, c.Now())
}

func TestDeterministicClock_Concurrent(t *testing.T) {
	c := NewDeterministicClock(time.Second)

	var wg sync.WaitGroup
	seen := make(chan time.Time, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- c.Now()
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[time.Time]bool)
	for ts := range seen {
		unique[ts] = true
	}
	assert.Len(t, unique, 100, "every call returns a distinct instant")
	assert.Equal(t, Epoch.Add(100*time.Second), c.Current())
}
