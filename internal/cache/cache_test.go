package cache

import "testing"

func TestLRU_GetSet(t *testing.T) {
	c := NewLRU(4)

	if _, ok := c.Get("https://www.km77.com/coches"); ok {
		t.Error("empty cache should miss")
	}

	c.Set("https://www.km77.com/coches", "<html>makes</html>")
	got, ok := c.Get("https://www.km77.com/coches")
	if !ok || got != "<html>makes</html>" {
		t.Errorf("got %q, ok=%v", got, ok)
	}

	c.Set("https://www.km77.com/coches", "<html>updated</html>")
	if got, _ := c.Get("https://www.km77.com/coches"); got != "<html>updated</html>" {
		t.Errorf("update lost: %q", got)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestLRU_EvictsOldest(t *testing.T) {
	c := NewLRU(2)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a") // refresh a: b is now the eviction candidate
	c.Set("c", "3")

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("recently used entry was evicted")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("new entry missing")
	}
}
