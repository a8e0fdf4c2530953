package pope

import (
	"context"
	"testing"
)

func TestInstance_IsSingletonAndUninitialized(t *testing.T) {
	a := Instance()
	b := Instance()
	if a != b {
		t.Fatal("Instance returned different values across calls")
	}

	ok, err := a.Submit([]byte("x"), 0, nil).Wait(context.Background())
	if err != nil || !ok {
		t.Fatalf("expected uninitialized accommodation: ok=%v err=%v", ok, err)
	}
}
