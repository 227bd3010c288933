package session

import (
	"sync"
	"testing"

	"github.com/abrezinsky/trackbet/internal/models"
)

func TestStore_PutAndGet(t *testing.T) {
	store := NewStore()

	if _, ok := store.Get("ABCD1234"); ok {
		t.Error("expected empty store to miss")
	}

	entry := store.Put(&models.Session{ID: "ABCD1234"})
	got, ok := store.Get("ABCD1234")
	if !ok {
		t.Fatal("expected session to be stored")
	}
	if got != entry {
		t.Error("expected Get to return the same entry Put created")
	}
	if !store.Has("ABCD1234") {
		t.Error("expected Has to report the session")
	}
}

func TestStore_GetOrPut_ReturnsExistingEntry(t *testing.T) {
	store := NewStore()
	winner := &models.Session{ID: "ABCD1234"}
	loser := &models.Session{ID: "ABCD1234"}

	first := store.GetOrPut(winner)
	second := store.GetOrPut(loser)
	if first != second {
		t.Error("expected both loaders to share one entry")
	}
	if second.Session != winner {
		t.Error("expected the first session copy to win")
	}
}

func TestStore_GetOrPut_Concurrent(t *testing.T) {
	store := NewStore()

	const loaders = 8
	entries := make([]*Entry, loaders)
	var wg sync.WaitGroup
	for i := 0; i < loaders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			entries[i] = store.GetOrPut(&models.Session{ID: "ABCD1234"})
		}(i)
	}
	wg.Wait()

	for i := 1; i < loaders; i++ {
		if entries[i] != entries[0] {
			t.Fatalf("loader %d got a different entry than loader 0", i)
		}
	}
}

func TestStore_TokenIndex(t *testing.T) {
	store := NewStore()
	store.Put(&models.Session{ID: "ABCD1234"})
	store.IndexToken("tok-1", "ABCD1234")

	sessionID, ok := store.SessionForToken("tok-1")
	if !ok || sessionID != "ABCD1234" {
		t.Errorf("expected token to resolve to ABCD1234, got %q/%v", sessionID, ok)
	}

	if _, ok := store.SessionForToken("tok-unknown"); ok {
		t.Error("expected unknown token to miss")
	}
}

func TestStore_DeletePurgesTokens(t *testing.T) {
	store := NewStore()
	store.Put(&models.Session{ID: "ABCD1234"})
	store.Put(&models.Session{ID: "EFGH5678"})
	store.IndexToken("tok-1", "ABCD1234")
	store.IndexToken("tok-2", "EFGH5678")

	store.Delete("ABCD1234")

	if store.Has("ABCD1234") {
		t.Error("expected session removed")
	}
	if _, ok := store.SessionForToken("tok-1"); ok {
		t.Error("expected deleted session's token to be purged")
	}
	if _, ok := store.SessionForToken("tok-2"); !ok {
		t.Error("expected unrelated token to survive")
	}
}

func TestNewSessionCode_Format(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := newSessionCode()
		if err != nil {
			t.Fatalf("newSessionCode failed: %v", err)
		}
		if len(code) != 8 {
			t.Fatalf("expected 8-char code, got %q", code)
		}
		for _, c := range code {
			if !(c >= 'A' && c <= 'Z') && !(c >= '0' && c <= '9') {
				t.Fatalf("unexpected character %q in code %q", c, code)
			}
		}
		seen[code] = true
	}
	// 100 draws from a 36^8 space should never collide
	if len(seen) != 100 {
		t.Errorf("expected 100 distinct codes, got %d", len(seen))
	}
}

func TestNewPlayerToken_Distinct(t *testing.T) {
	a, b := newPlayerToken(), newPlayerToken()
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty tokens, got %q and %q", a, b)
	}
}
