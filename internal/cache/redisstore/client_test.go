package redisstore

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newMini(t *testing.T) *Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	c, err := New(ctx, mr.Addr())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newMini(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k1", []byte("v1"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := c.Get(ctx, "k1")
	if err != nil || !ok {
		t.Fatalf("Get: v=%q ok=%v err=%v", v, ok, err)
	}
	if string(v) != "v1" {
		t.Fatalf("got %q, want v1", v)
	}
}

func TestGetMissingKeyReturnsNotFound(t *testing.T) {
	c := newMini(t)
	_, ok, err := c.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for missing key")
	}
}

func TestMGetFiltersMissingKeys(t *testing.T) {
	c := newMini(t)
	ctx := context.Background()
	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "c", []byte("3"), time.Minute)

	got, err := c.MGet(ctx, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["c"]) != "3" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if _, ok := got["b"]; ok {
		t.Fatal("expected missing key b to be absent")
	}
}

func TestDelRemovesKeys(t *testing.T) {
	c := newMini(t)
	ctx := context.Background()
	_ = c.Set(ctx, "x", []byte("1"), time.Minute)

	if err := c.Del(ctx, "x"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	_, ok, _ := c.Get(ctx, "x")
	if ok {
		t.Fatal("expected key to be gone after Del")
	}
}

func TestIncrAndExpire(t *testing.T) {
	c := newMini(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "counter")
	if err != nil || n != 1 {
		t.Fatalf("Incr: n=%d err=%v", n, err)
	}
	n, err = c.Incr(ctx, "counter")
	if err != nil || n != 2 {
		t.Fatalf("second Incr: n=%d err=%v", n, err)
	}
	if err := c.Expire(ctx, "counter", time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}
}

func TestMSetWithTTLSetsAllKeys(t *testing.T) {
	c := newMini(t)
	ctx := context.Background()

	err := c.MSetWithTTL(ctx, map[string][]byte{"p": []byte("1"), "q": []byte("2")}, time.Minute)
	if err != nil {
		t.Fatalf("MSetWithTTL: %v", err)
	}
	got, err := c.MGet(ctx, []string{"p", "q"})
	if err != nil {
		t.Fatalf("MGet: %v", err)
	}
	if string(got["p"]) != "1" || string(got["q"]) != "2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestNewRejectsEmptyAddr(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty address")
	}
}
