package services

import (
	"sync"
	"testing"

	"github.com/unam-acatlan/macgpt-core/internal/core/domain"
)

func TestActiveIndexSwap(t *testing.T) {
	a := NewActiveIndex(nil)
	if a.Generation() != nil {
		t.Fatal("fresh index is not empty")
	}

	first := &domain.Generation{ID: "gen-1"}
	if prev := a.Swap(first); prev != nil {
		t.Errorf("first swap returned %v", prev)
	}
	if a.Generation().ID != "gen-1" {
		t.Errorf("active = %s", a.Generation().ID)
	}

	second := &domain.Generation{ID: "gen-2"}
	if prev := a.Swap(second); prev != first {
		t.Error("swap did not return the previous generation")
	}
	if a.Generation().ID != "gen-2" {
		t.Errorf("active = %s", a.Generation().ID)
	}
}

func TestActiveIndexConcurrentReaders(t *testing.T) {
	a := NewActiveIndex(&domain.Generation{ID: "gen-0"})
	known := map[string]bool{"gen-0": true, "gen-1": true, "gen-2": true}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				gen := a.Generation()
				if gen == nil || !known[gen.ID] {
					t.Errorf("reader saw unexpected generation %v", gen)
					return
				}
			}
		}()
	}

	a.Swap(&domain.Generation{ID: "gen-1"})
	a.Swap(&domain.Generation{ID: "gen-2"})
	wg.Wait()

	if a.Generation().ID != "gen-2" {
		t.Errorf("final active = %s", a.Generation().ID)
	}
}
