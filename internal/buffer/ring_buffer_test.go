package buffer

import (
	"bytes"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestNewHistory(t *testing.T) {
	h := NewHistory(100)
	if h.Cap() != 100 {
		t.Errorf("expected capacity 100, got %d", h.Cap())
	}
	if h.Len() != 0 {
		t.Errorf("expected length 0, got %d", h.Len())
	}

	// Zero and negative capacities default to 1
	if NewHistory(0).Cap() != 1 {
		t.Error("expected capacity 1 for zero input")
	}
	if NewHistory(-5).Cap() != 1 {
		t.Error("expected capacity 1 for negative input")
	}
}

func TestHistory_Append(t *testing.T) {
	h := NewHistory(10)

	h.Append([]byte("hello"))
	if h.Len() != 5 {
		t.Errorf("expected length 5, got %d", h.Len())
	}

	h.Append([]byte("world"))
	if h.Len() != 10 {
		t.Errorf("expected length 10, got %d", h.Len())
	}

	if got := h.Snapshot(); !bytes.Equal(got, []byte("helloworld")) {
		t.Errorf("expected 'helloworld', got %q", got)
	}
}

func TestHistory_AppendEvictsOldest(t *testing.T) {
	h := NewHistory(10)

	h.Append([]byte("0123456789"))
	h.Append([]byte("abc"))

	if got := h.Snapshot(); !bytes.Equal(got, []byte("3456789abc")) {
		t.Errorf("expected '3456789abc', got %q", got)
	}
	if h.Len() != 10 {
		t.Errorf("expected length 10, got %d", h.Len())
	}
}

func TestHistory_AppendLargerThanCapacity(t *testing.T) {
	h := NewHistory(5)

	h.Append([]byte("0123456789"))

	if got := h.Snapshot(); !bytes.Equal(got, []byte("56789")) {
		t.Errorf("expected '56789', got %q", got)
	}
	if h.Len() != 5 {
		t.Errorf("expected length 5, got %d", h.Len())
	}
}

func TestHistory_AppendEmpty(t *testing.T) {
	h := NewHistory(10)
	h.Append([]byte("hello"))

	h.Append(nil)
	h.Append([]byte{})

	if got := h.Snapshot(); !bytes.Equal(got, []byte("hello")) {
		t.Errorf("expected 'hello', got %q", got)
	}
}

func TestHistory_Snapshot(t *testing.T) {
	h := NewHistory(10)

	if got := h.Snapshot(); got != nil {
		t.Errorf("expected nil for empty buffer, got %v", got)
	}

	h.Append([]byte("test"))
	got := h.Snapshot()
	if !bytes.Equal(got, []byte("test")) {
		t.Errorf("expected 'test', got %q", got)
	}

	// Snapshot must be a copy: mutating it leaves the buffer untouched.
	got[0] = 'X'
	if again := h.Snapshot(); !bytes.Equal(again, []byte("test")) {
		t.Errorf("Snapshot should return a copy, got %q", again)
	}
}

// For any sequence of appended chunks, the snapshot equals the suffix of
// the concatenation bounded by the capacity.
func TestHistorySuffixProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("snapshot is the bounded suffix of all appends", prop.ForAll(
		func(capacity int, chunks [][]byte) bool {
			h := NewHistory(capacity)

			var total []byte
			for _, chunk := range chunks {
				h.Append(chunk)
				total = append(total, chunk...)
			}

			if h.Len() > h.Cap() {
				return false
			}

			want := total
			if len(want) > h.Cap() {
				want = want[len(want)-h.Cap():]
			}
			if len(want) == 0 {
				return h.Snapshot() == nil
			}
			return bytes.Equal(h.Snapshot(), want)
		},
		gen.IntRange(1, 64),
		gen.SliceOf(gen.SliceOf(gen.UInt8())),
	))

	properties.TestingRun(t)
}
