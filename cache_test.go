package minicjs

import (
	"errors"
	"reflect"
	"testing"
)

func TestCacheLoadingChain(t *testing.T) {
	cache := NewCache()

	if err := cache.enter("a.js"); err != nil {
		t.Fatal(err)
	}
	if err := cache.enter("b.js"); err != nil {
		t.Fatal(err)
	}

	err := cache.enter("a.js")
	var cyclic *CyclicDependencyError
	if !errors.As(err, &cyclic) {
		t.Fatalf("expected CyclicDependencyError, got %v", err)
	}
	if want := []string{"a.js", "b.js", "a.js"}; !reflect.DeepEqual(cyclic.Chain, want) {
		t.Errorf("Chain = %v, want %v", cyclic.Chain, want)
	}
	if want := "cyclic dependency detected: a.js -> b.js -> a.js"; cyclic.Error() != want {
		t.Errorf("Error() = %q, want %q", cyclic.Error(), want)
	}

	chain := cache.Loading()
	chain[0] = "changed"
	if cache.Loading()[0] != "a.js" {
		t.Error("Loading returned the internal slice")
	}

	cache.leave("b.js")
	cache.leave("a.js")
	if len(cache.Loading()) != 0 {
		t.Errorf("Loading() = %v after leaving every path", cache.Loading())
	}
	if err := cache.enter("a.js"); err != nil {
		t.Errorf("re-entering a finished path failed: %v", err)
	}
}

func TestCacheKeys(t *testing.T) {
	cache := NewCache()
	cache.Set("util", nil)
	cache.Set("lib/util.js", nil)
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
	if want := []string{"lib/util.js", "util"}; !reflect.DeepEqual(cache.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", cache.Keys(), want)
	}
	if _, ok := cache.Get("missing"); ok {
		t.Error("Get returned a module for an unknown key")
	}
}
