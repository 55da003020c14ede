package clock

import (
	"testing"
	"time"
)

func TestStubClock_SetAndAdvance(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	c := NewStubClockAt(start)

	if !c.NowUtc().Equal(start) {
		t.Fatalf("NowUtc() = %v, ожидается %v", c.NowUtc(), start)
	}
	if c.NowUtc().Location() != time.UTC {
		t.Error("StubClock должен возвращать время в UTC")
	}

	got := c.Advance(time.Millisecond)
	if got.UnixMilli() != 1700000000001 {
		t.Errorf("Advance() = %d, ожидается 1700000000001", got.UnixMilli())
	}
}

func TestRealClock_UTC(t *testing.T) {
	now := NewRealClock().NowUtc()
	if now.Location() != time.UTC {
		t.Errorf("RealClock.NowUtc() location = %v, ожидается UTC", now.Location())
	}
}
