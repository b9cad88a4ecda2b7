package buffer

import (
	"io"
	"slices"
	"testing"
)

func TestReaderReset(t *testing.T) {
	b, _ := NewTestBuffer(t, 2)
	b.AppendAll(generateValues(0, 10)...)
	reader := NewReader(b)
	if _, err := reader.Seek(7, io.SeekCurrent); err != nil {
		t.Fatal(err)
	}
	prevOffset := reader.Offset()
	reader.Reset()
	if reader.Offset() != 0 || reader.Offset() == prevOffset {
		t.Errorf("expected reader offset to be reset")
	}
}

func TestReaderRead(t *testing.T) {
	t.Run("Empty buffer", func(t *testing.T) {
		b, _ := NewTestBuffer(t, 0)
		p := make([]int64, 4)
		if n, err := NewReader(b).Read(p); n != 0 || err != io.EOF {
			t.Errorf("expected (0, io.EOF), got (%d, %v)", n, err)
		}
	})

	t.Run("Empty destination", func(t *testing.T) {
		b, _ := NewTestBuffer(t, 2)
		b.Append(1)
		if n, err := NewReader(b).Read(nil); n != 0 || err != nil {
			t.Errorf("expected (0, nil), got (%d, %v)", n, err)
		}
	})

	t.Run("Across chunks in small reads", func(t *testing.T) {
		b, _ := NewTestBuffer(t, 1)
		values := generateValues(0, 50)
		b.AppendAll(values...)
		reader := NewReader(b)

		var got []int64
		p := make([]int64, 3)
		for {
			n, err := reader.Read(p)
			got = append(got, p[:n]...)
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatal(err)
			}
		}
		if !slices.Equal(got, values) {
			t.Fatalf("expected values %v, got %v", values, got)
		}
		if reader.Offset() != len(values) {
			t.Fatalf("expected reader offset %d, got %d", len(values), reader.Offset())
		}
	})

	t.Run("Sees later appends", func(t *testing.T) {
		b, _ := NewTestBuffer(t, 2)
		b.AppendAll(1, 2)
		reader := NewReader(b)
		p := make([]int64, 8)
		if n, _ := reader.Read(p); n != 2 {
			t.Fatalf("expected to read 2 values, got %d", n)
		}
		if _, err := reader.Read(p); err != io.EOF {
			t.Fatalf("expected io.EOF, got %v", err)
		}
		b.AppendAll(3, 4, 5)
		n, err := reader.Read(p)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(p[:n], []int64{3, 4, 5}) {
			t.Fatalf("expected values [3 4 5], got %v", p[:n])
		}
	})

	t.Run("Stops at logical length after reset", func(t *testing.T) {
		b, _ := NewTestBuffer(t, 4)
		b.AppendAll(generateValues(0, 12)...)
		b.Reset()
		b.AppendAll(100, 101, 102, 103, 104)
		p := make([]int64, 12)
		n, err := NewReader(b).Read(p)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(p[:n], []int64{100, 101, 102, 103, 104}) {
			t.Fatalf("expected values [100 101 102 103 104], got %v", p[:n])
		}
	})
}

func TestReaderSeek(t *testing.T) {
	b, _ := NewTestBuffer(t, 3)
	values := generateValues(0, 20)
	b.AppendAll(values...)

	tests := []struct {
		name     string
		offset   int64
		whence   int
		expected int64
	}{
		{"Start", 5, io.SeekStart, 5},
		{"Chunk boundary", 3, io.SeekStart, 3},
		{"Current", 4, io.SeekCurrent, 14},
		{"End", -2, io.SeekEnd, 18},
	}
	reader := NewReader(b)
	if _, err := reader.Seek(10, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.whence == io.SeekCurrent {
				if _, err := reader.Seek(10, io.SeekStart); err != nil {
					t.Fatal(err)
				}
			}
			off, err := reader.Seek(tt.offset, tt.whence)
			if err != nil {
				t.Fatal(err)
			}
			if off != tt.expected {
				t.Fatalf("expected offset %d, got %d", tt.expected, off)
			}
			p := make([]int64, 1)
			if _, err := reader.Read(p); err != nil {
				t.Fatal(err)
			}
			if p[0] != values[tt.expected] {
				t.Fatalf("expected value %d, got %d", values[tt.expected], p[0])
			}
		})
	}

	t.Run("Past end", func(t *testing.T) {
		if _, err := reader.Seek(100, io.SeekStart); err != nil {
			t.Fatal(err)
		}
		if _, err := reader.Read(make([]int64, 1)); err != io.EOF {
			t.Fatalf("expected io.EOF, got %v", err)
		}
	})

	t.Run("Negative", func(t *testing.T) {
		if _, err := reader.Seek(-1, io.SeekStart); err == nil {
			t.Fatal("expected error for negative offset")
		}
	})

	t.Run("Invalid whence", func(t *testing.T) {
		if _, err := reader.Seek(0, 42); err == nil {
			t.Fatal("expected error for invalid whence")
		}
	})
}

func TestReaderSeekPastEndThenGrow(t *testing.T) {
	for _, bulk := range []bool{false, true} {
		b, _ := NewTestBuffer(t, 4)
		b.AppendAll(generateValues(0, 4)...)
		reader := NewReader(b)
		if _, err := reader.Seek(20, io.SeekStart); err != nil {
			t.Fatal(err)
		}

		// Growth spans several new chunks past the seeked offset.
		if bulk {
			b.AppendAll(generateValues(4, 40)...)
		} else {
			for _, v := range generateValues(4, 40) {
				b.Append(v)
			}
		}

		p := make([]int64, 3)
		n, err := reader.Read(p)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(p[:n], []int64{20, 21, 22}) {
			t.Fatalf("bulk=%v: expected values [20 21 22], got %v", bulk, p[:n])
		}
		if reader.Offset() != 23 {
			t.Fatalf("bulk=%v: expected reader offset 23, got %d", bulk, reader.Offset())
		}
	}
}
