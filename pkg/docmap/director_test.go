package docmap

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIDDirectorDocumentAndQueryKeysMatch(t *testing.T) {
	d := IDDirector{Prefix: "users:"}

	oid := primitive.NewObjectID()
	tests := []struct {
		name string
		id   any
	}{
		{"string id", "u1"},
		{"object id", oid},
		{"numeric id", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Document{"_id": tt.id, "name": "ada"}
			cond := Conditions{"_id": tt.id}

			if !d.IsDocumentCacheable(doc) {
				t.Fatal("Expected document with identifier to be cacheable")
			}
			if !d.IsQueryCacheable(cond) {
				t.Fatal("Expected exact identifier lookup to be cacheable")
			}
			if dk, qk := d.DocumentCacheKey(doc), d.QueryCacheKey(cond); dk != qk {
				t.Fatalf("Expected matching keys, got document %q query %q", dk, qk)
			}
		})
	}
}

func TestIDDirectorObjectIDKeyIsHex(t *testing.T) {
	oid := primitive.NewObjectID()
	d := IDDirector{}

	if got := d.DocumentCacheKey(Document{"_id": oid}); got != oid.Hex() {
		t.Fatalf("Expected hex rendering %q, got %q", oid.Hex(), got)
	}
}

func TestIDDirectorRejectsMissingID(t *testing.T) {
	d := IDDirector{}

	if d.IsDocumentCacheable(Document{"name": "ada"}) {
		t.Fatal("Expected document without identifier to be non-cacheable")
	}
	if d.IsDocumentCacheable(Document{"_id": nil}) {
		t.Fatal("Expected nil identifier to be non-cacheable")
	}
}

func TestIDDirectorQueryCacheability(t *testing.T) {
	d := IDDirector{}

	tests := []struct {
		name      string
		cond      Conditions
		cacheable bool
	}{
		{"exact id", Conditions{"_id": "u1"}, true},
		{"id plus field", Conditions{"_id": "u1", "name": "ada"}, false},
		{"operator filter", Conditions{"_id": map[string]any{"$in": []any{"u1"}}}, false},
		{"bson.M operator filter", Conditions{"_id": bson.M{"$in": []any{"a", "b"}}}, false},
		{"bson.D operator filter", Conditions{"_id": bson.D{{Key: "$gt", Value: "u0"}}}, false},
		{"nested conditions", Conditions{"_id": Conditions{"$gt": "u0"}}, false},
		{"no id", Conditions{"name": "ada"}, false},
		{"nil id", Conditions{"_id": nil}, false},
		{"empty", Conditions{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.IsQueryCacheable(tt.cond); got != tt.cacheable {
				t.Fatalf("Expected cacheable=%v for %v, got %v", tt.cacheable, tt.cond, got)
			}
		})
	}
}

func TestIDDirectorPrefixPartitionsKeys(t *testing.T) {
	a := IDDirector{Prefix: "a:"}
	b := IDDirector{Prefix: "b:"}
	doc := Document{"_id": "shared"}

	if a.DocumentCacheKey(doc) == b.DocumentCacheKey(doc) {
		t.Fatal("Expected distinct prefixes to produce distinct keys")
	}
}

func TestCanonicalKeyDeterministic(t *testing.T) {
	// Logically equal conditions built in different insertion orders.
	a := Conditions{}
	a["x"] = 1
	a["y"] = "z"
	b := Conditions{}
	b["y"] = "z"
	b["x"] = 1

	if CanonicalKey(a) != CanonicalKey(b) {
		t.Fatalf("Expected identical keys, got %q and %q", CanonicalKey(a), CanonicalKey(b))
	}
}

func TestCanonicalKeyDistinguishesConditions(t *testing.T) {
	a := Conditions{"x": 1}
	b := Conditions{"x": 2}

	if CanonicalKey(a) == CanonicalKey(b) {
		t.Fatal("Expected distinct conditions to produce distinct keys")
	}
}
