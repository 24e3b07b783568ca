package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestClass_String(t *testing.T) {
	tests := []struct {
		class    Class
		expected string
	}{
		{ClassShape, "shape"},
		{ClassTimeout, "timeout"},
		{ClassNotFound, "not_found"},
		{ClassPeer, "peer"},
		{ClassDecode, "decode"},
		{Class(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			if got := test.class.String(); got != test.expected {
				t.Errorf("expected %s, got %s", test.expected, got)
			}
		})
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"nil is not shape", nil, IsShape, false},
		{"shapef", Shapef("main", "DrawFrame", "bad columns"), IsShape, true},
		{"empty input is shape", EmptyInput("main", "HighlightAtoms", "index list"), IsShape, true},
		{"empty input sentinel", EmptyInput("main", "HighlightAtoms", "index list"), func(err error) bool {
			return errors.Is(err, ErrEmptyInput)
		}, true},
		{"timeout", Timeout("main", 4, time.Second), IsTimeout, true},
		{"timeout is not shape", Timeout("main", 4, time.Second), IsShape, false},
		{"not found", NotFound("side", []string{"main"}), IsNotFound, true},
		{"peer", Peer("main", "GetSelected", "renderer exploded"), IsPeer, true},
		{"decode", Decode("main", fmt.Errorf("bad json")), IsDecode, true},
		{"wrapped shape survives", fmt.Errorf("outer: %w", Shapef("main", "DrawBox", "no matrix")), IsShape, true},
		{"plain error", fmt.Errorf("something"), IsTimeout, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.pred(test.err); got != test.want {
				t.Errorf("expected %v, got %v for error: %v", test.want, got, test.err)
			}
		})
	}
}

func TestMessages(t *testing.T) {
	err := Shapef("main", "DrawFrame", "columns x=%d y=%d", 2, 3)
	want := "main.DrawFrame: columns x=2 y=3"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	err = Timeout("main", 17, 5*time.Second)
	if !strings.Contains(err.Error(), "request 17") || !strings.Contains(err.Error(), "5s") {
		t.Errorf("timeout message missing detail: %q", err.Error())
	}

	err = NotFound("ghost", []string{"main", "side"})
	if !strings.Contains(err.Error(), `"ghost"`) || !strings.Contains(err.Error(), "main, side") {
		t.Errorf("not-found message missing detail: %q", err.Error())
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(base, "main", "call", "send request")
	want := "main.call: send request failed: connection refused"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}
	if !errors.Is(err, base) {
		t.Error("wrapped error must unwrap to its cause")
	}

	if Wrap(nil, "main", "call", "send") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestClassifiedError_Unwrap(t *testing.T) {
	err := Shapef("main", "DrawFrame", "bad")
	if !errors.Is(err, ErrShape) {
		t.Error("shape error must match ErrShape sentinel")
	}

	var ce *ClassifiedError
	if !errors.As(err, &ce) {
		t.Fatal("expected a ClassifiedError in the chain")
	}
	if ce.Scene != "main" || ce.Operation != "DrawFrame" {
		t.Errorf("context not carried: %+v", ce)
	}
}
