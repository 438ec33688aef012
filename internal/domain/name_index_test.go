package domain

import "testing"

func TestBuildNameIndex(t *testing.T) {
	t.Run("registers case-folded primary name", func(t *testing.T) {
		catalog := Catalog{
			"p1": {ID: "p1", PrimaryName: "Ginger Tea"},
		}
		idx := BuildNameIndex(catalog)

		id, ok := idx.Lookup("ginger tea")
		if !ok || id != "p1" {
			t.Errorf("Lookup(%q) = %q, %v, want p1, true", "ginger tea", id, ok)
		}
	})

	t.Run("registers alternate names", func(t *testing.T) {
		catalog := Catalog{
			"p1": {ID: "p1", PrimaryName: "Fami Soy Milk", AltNames: []string{"Sữa đậu nành Fami", "Fami 200ml"}},
		}
		idx := BuildNameIndex(catalog)

		for _, name := range []string{"fami soy milk", "sữa đậu nành fami", "fami 200ml"} {
			id, ok := idx.Lookup(name)
			if !ok || id != "p1" {
				t.Errorf("Lookup(%q) = %q, %v, want p1, true", name, id, ok)
			}
		}
		if idx.Size() != 3 {
			t.Errorf("Size() = %d, want 3", idx.Size())
		}
	})

	t.Run("empty primary name still registers alt names", func(t *testing.T) {
		catalog := Catalog{
			"p1": {ID: "p1", PrimaryName: "", AltNames: []string{"Backup Name"}},
		}
		idx := BuildNameIndex(catalog)

		if idx.Size() != 1 {
			t.Fatalf("Size() = %d, want 1", idx.Size())
		}
		id, ok := idx.Lookup("backup name")
		if !ok || id != "p1" {
			t.Errorf("Lookup(%q) = %q, %v, want p1, true", "backup name", id, ok)
		}
	})

	t.Run("colliding name is kept by the last writer in sorted-ID order", func(t *testing.T) {
		catalog := Catalog{
			"a1": {ID: "a1", PrimaryName: "Cola"},
			"b2": {ID: "b2", PrimaryName: "cola"},
		}
		idx := BuildNameIndex(catalog)

		id, ok := idx.Lookup("cola")
		if !ok || id != "b2" {
			t.Errorf("Lookup(cola) = %q, %v, want b2 (last writer)", id, ok)
		}

		collisions := idx.Collisions()
		if len(collisions) != 1 {
			t.Fatalf("Collisions() len = %d, want 1", len(collisions))
		}
		if collisions[0].KeptID != "b2" || collisions[0].DroppedID != "a1" {
			t.Errorf("collision = %+v, want kept b2, dropped a1", collisions[0])
		}
	})

	t.Run("collision re-points scan keys to the winner", func(t *testing.T) {
		catalog := Catalog{
			"a1": {ID: "a1", PrimaryName: "Cola"},
			"b2": {ID: "b2", PrimaryName: "Cola"},
		}
		idx := BuildNameIndex(catalog)

		keys := idx.Keys()
		if len(keys) != 1 {
			t.Fatalf("Keys() len = %d, want 1", len(keys))
		}
		if keys[0].ProductID != "b2" {
			t.Errorf("key product = %q, want b2", keys[0].ProductID)
		}
	})

	t.Run("duplicate name on the same product is not a collision", func(t *testing.T) {
		catalog := Catalog{
			"p1": {ID: "p1", PrimaryName: "Tea", AltNames: []string{"tea"}},
		}
		idx := BuildNameIndex(catalog)

		if len(idx.Collisions()) != 0 {
			t.Errorf("Collisions() = %v, want none", idx.Collisions())
		}
		if idx.Size() != 1 {
			t.Errorf("Size() = %d, want 1", idx.Size())
		}
	})

	t.Run("keys preserve sorted-ID insertion order", func(t *testing.T) {
		catalog := Catalog{
			"c": {ID: "c", PrimaryName: "Third"},
			"a": {ID: "a", PrimaryName: "First"},
			"b": {ID: "b", PrimaryName: "Second"},
		}
		idx := BuildNameIndex(catalog)

		keys := idx.Keys()
		want := []string{"first", "second", "third"}
		for i, key := range keys {
			if key.Name != want[i] {
				t.Errorf("keys[%d] = %q, want %q", i, key.Name, want[i])
			}
		}
	})

	t.Run("empty catalog builds an empty index", func(t *testing.T) {
		idx := BuildNameIndex(Catalog{})
		if idx.Size() != 0 {
			t.Errorf("Size() = %d, want 0", idx.Size())
		}
		if _, ok := idx.Lookup("anything"); ok {
			t.Error("Lookup on empty index should miss")
		}
	})
}
