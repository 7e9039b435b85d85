package bus

import "testing"

func TestFrameQueuePushPop(t *testing.T) {
	q := newFrameQueue(2)
	if !q.empty() {
		t.Fatal("new queue should be empty")
	}

	f1 := NewFrame(1, nil)
	f2 := NewFrame(2, nil)

	if !q.push(f1) {
		t.Fatal("push 1 should succeed")
	}
	if !q.push(f2) {
		t.Fatal("push 2 should succeed")
	}
	if q.len() != 2 {
		t.Errorf("expected len 2, got %d", q.len())
	}

	f3 := NewFrame(3, nil)
	if q.push(f3) {
		t.Error("push beyond capacity should fail")
	}

	got := q.pop()
	if got != f1 {
		t.Error("pop should return frames in FIFO order")
	}
	if q.len() != 1 {
		t.Errorf("expected len 1 after pop, got %d", q.len())
	}
}

func TestFrameQueuePopEmpty(t *testing.T) {
	q := newFrameQueue(1)
	if q.pop() != nil {
		t.Error("pop on empty queue should return nil")
	}
}
