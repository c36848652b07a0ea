package audio

import (
	"testing"
)

func TestRingBufferWriteRead(t *testing.T) {
	rb := NewRingBuffer(10)

	data := []byte{1, 2, 3, 4, 5}
	written := rb.Write(data)
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, got %d", written)
	}
	if rb.Available() != 5 {
		t.Errorf("Expected available 5, got %d", rb.Available())
	}

	out := make([]byte, 3)
	read := rb.Read(out)
	if read != 3 {
		t.Errorf("Expected to read 3 bytes, got %d", read)
	}
	if out[0] != 1 || out[2] != 3 {
		t.Errorf("Read wrong bytes: %v", out)
	}
	if rb.Available() != 2 {
		t.Errorf("Expected available 2 after read, got %d", rb.Available())
	}
}

func TestRingBufferOverflow(t *testing.T) {
	rb := NewRingBuffer(5)

	// One slot stays unused, so capacity is size-1
	written := rb.Write([]byte{1, 2, 3, 4})
	if written != 4 {
		t.Errorf("Expected to write 4 bytes, got %d", written)
	}
	if !rb.IsFull() {
		t.Error("Expected buffer to be full")
	}

	written = rb.Write([]byte{5, 6})
	if written != 0 {
		t.Errorf("Expected 0 bytes written to full buffer, got %d", written)
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	rb := NewRingBuffer(8)

	rb.Write([]byte{1, 2, 3, 4, 5})
	out := make([]byte, 5)
	rb.Read(out)

	// Write past the physical end of the buffer
	rb.Write([]byte{6, 7, 8, 9, 10})
	if rb.Available() != 5 {
		t.Errorf("Expected available 5 after wrap, got %d", rb.Available())
	}

	rb.Read(out)
	if out[0] != 6 || out[4] != 10 {
		t.Errorf("Wrap-around read returned wrong bytes: %v", out)
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer(10)
	rb.Write([]byte{1, 2, 3})
	rb.Clear()

	if !rb.IsEmpty() {
		t.Error("Expected buffer empty after Clear")
	}
	if rb.Available() != 0 {
		t.Errorf("Expected available 0, got %d", rb.Available())
	}
}

func TestRingBufferSpace(t *testing.T) {
	rb := NewRingBuffer(10)
	if rb.Space() != 9 {
		t.Errorf("Expected space 9 in empty buffer, got %d", rb.Space())
	}

	rb.Write([]byte{1, 2, 3})
	if rb.Space() != 6 {
		t.Errorf("Expected space 6, got %d", rb.Space())
	}
}
