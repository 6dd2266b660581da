package reclaim

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dalemusser/stratadrive/internal/app/system/blob"
)

func TestReclaim_RemovesBytes(t *testing.T) {
	store := blob.NewMemory()
	ctx := context.Background()
	store.Put(ctx, "files/a", strings.NewReader("data"), "")

	r := New(store, nil)
	alreadyAbsent, err := r.Reclaim(ctx, "files/a")
	if err != nil {
		t.Fatalf("Reclaim() error = %v", err)
	}
	if alreadyAbsent {
		t.Error("alreadyAbsent = true for present bytes")
	}
	if store.Has("files/a") {
		t.Error("bytes still present after reclaim")
	}
}

func TestReclaim_AlreadyAbsentIsSuccess(t *testing.T) {
	r := New(blob.NewMemory(), nil)

	alreadyAbsent, err := r.Reclaim(context.Background(), "files/gone")
	if err != nil {
		t.Fatalf("Reclaim() of absent bytes error = %v", err)
	}
	if !alreadyAbsent {
		t.Error("alreadyAbsent = false for absent bytes")
	}

	// Reclaiming twice stays successful.
	if _, err := r.Reclaim(context.Background(), "files/gone"); err != nil {
		t.Fatalf("second Reclaim() error = %v", err)
	}
}

func TestReclaim_SurfacesIOErrors(t *testing.T) {
	store := blob.NewMemory()
	ctx := context.Background()
	store.Put(ctx, "files/b", strings.NewReader("data"), "")
	deviceErr := errors.New("device error")
	store.FailDelete("files/b", deviceErr)

	r := New(store, nil)
	_, err := r.Reclaim(ctx, "files/b")
	if !errors.Is(err, deviceErr) {
		t.Errorf("Reclaim() error = %v, want wrapped device error", err)
	}
}
