// Пакет clock — источник текущего времени, подменяемый в тестах.
package clock

import (
	"sync"
	"time"
)

// Clock возвращает текущее время в UTC.
type Clock interface {
	NowUtc() time.Time
}

// RealClock — системные часы.
type RealClock struct{}

// NewRealClock создаёт системные часы.
func NewRealClock() *RealClock {
	return &RealClock{}
}

func (c *RealClock) NowUtc() time.Time {
	return time.Now().UTC()
}

// StubClock — управляемые часы для тестов.
type StubClock struct {
	now  time.Time
	lock sync.Mutex
}

// NewStubClock создаёт часы, остановленные на текущем моменте.
func NewStubClock() *StubClock {
	c := &StubClock{}
	c.SetNow(time.Now())
	return c
}

// NewStubClockAt создаёт часы, остановленные на заданном моменте.
func NewStubClockAt(now time.Time) *StubClock {
	c := &StubClock{}
	c.SetNow(now)
	return c
}

func (c *StubClock) NowUtc() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// SetNow устанавливает текущее время.
func (c *StubClock) SetNow(now time.Time) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = now.UTC()
}

// Advance сдвигает часы вперёд на d и возвращает новое время.
func (c *StubClock) Advance(d time.Duration) time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
