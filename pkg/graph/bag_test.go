package graph

import (
	"bytes"
	"fmt"
	"testing"

	json "github.com/goccy/go-json"
	"pgregory.net/rapid"
)

func TestPropertyBagSetGet(t *testing.T) {
	bag := NewPropertyBag()
	if err := bag.Set("name", "marko"); err != nil {
		t.Fatalf("set name: %v", err)
	}
	if err := bag.Set("age", 29); err != nil {
		t.Fatalf("set age: %v", err)
	}

	if got, ok := bag.GetString("name"); !ok || got != "marko" {
		t.Errorf("expected name 'marko', got %q (ok=%v)", got, ok)
	}
	raw, ok := bag.Get("age")
	if !ok {
		t.Fatal("expected age to be present")
	}
	if string(raw) != "29" {
		t.Errorf("expected raw age '29', got %q", raw)
	}
	if _, ok := bag.Get("missing"); ok {
		t.Error("expected missing key to report absent")
	}
}

func TestPropertyBagKeyOrder(t *testing.T) {
	bag := NewPropertyBag()
	for _, key := range []string{"z", "a", "m", "b"} {
		if err := bag.Set(key, key); err != nil {
			t.Fatalf("set %q: %v", key, err)
		}
	}
	// Overwrite must not move the key.
	if err := bag.Set("a", "updated"); err != nil {
		t.Fatalf("overwrite a: %v", err)
	}

	want := []string{"z", "a", "m", "b"}
	got := bag.Keys()
	if len(got) != len(want) {
		t.Fatalf("expected %d keys, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestPropertyBagUnmarshalPreservesOrder(t *testing.T) {
	input := `{"outV":"a","weird field":[1,{"x":2}],"id":"e1","type":"edge","inV":"b"}`

	var bag PropertyBag
	if err := json.Unmarshal([]byte(input), &bag); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out, err := json.Marshal(&bag)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(out, []byte(input)) {
		t.Errorf("round trip changed encoding:\n in: %s\nout: %s", input, out)
	}
}

func TestPropertyBagDuplicateKeys(t *testing.T) {
	input := `{"a":1,"b":2,"a":3}`

	var bag PropertyBag
	if err := json.Unmarshal([]byte(input), &bag); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	keys := bag.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("expected keys [a b], got %v", keys)
	}
	raw, _ := bag.Get("a")
	if string(raw) != "3" {
		t.Errorf("expected last value to win, got %q", raw)
	}
}

func TestPropertyBagRejectsNonObject(t *testing.T) {
	for _, input := range []string{`[1,2]`, `"text"`, `42`, `null`} {
		var bag PropertyBag
		if err := json.Unmarshal([]byte(input), &bag); err == nil {
			t.Errorf("expected error for input %s", input)
		}
	}
}

func TestPropertyBagCloneIsIndependent(t *testing.T) {
	bag := NewPropertyBag()
	if err := bag.Set("id", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	clone := bag.Clone()
	if err := clone.Set("id", "v2"); err != nil {
		t.Fatalf("set on clone: %v", err)
	}
	if err := clone.Set("extra", true); err != nil {
		t.Fatalf("set extra on clone: %v", err)
	}

	if got, _ := bag.GetString("id"); got != "v1" {
		t.Errorf("clone mutation leaked into original: id=%q", got)
	}
	if bag.Len() != 1 {
		t.Errorf("expected original to keep 1 key, got %d", bag.Len())
	}
}

func TestPropertyBagRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(rt, "fields")
		bag := NewPropertyBag()
		encoded := make(map[string]string, n)
		for i := 0; i < n; i++ {
			key := fmt.Sprintf("k%d_%s", i, rapid.StringMatching(`[a-zA-Z0-9_ ]{0,8}`).Draw(rt, "key"))
			var value any
			switch rapid.IntRange(0, 3).Draw(rt, "valueKind") {
			case 0:
				value = rapid.String().Draw(rt, "stringValue")
			case 1:
				value = rapid.Int64().Draw(rt, "intValue")
			case 2:
				value = rapid.Bool().Draw(rt, "boolValue")
			default:
				value = []int{rapid.IntRange(-5, 5).Draw(rt, "listValue")}
			}
			if err := bag.Set(key, value); err != nil {
				rt.Fatalf("set %q: %v", key, err)
			}
			raw, _ := bag.Get(key)
			encoded[key] = string(raw)
		}

		first, err := json.Marshal(bag)
		if err != nil {
			rt.Fatalf("marshal: %v", err)
		}
		var decoded PropertyBag
		if err := json.Unmarshal(first, &decoded); err != nil {
			rt.Fatalf("unmarshal: %v", err)
		}
		second, err := json.Marshal(&decoded)
		if err != nil {
			rt.Fatalf("remarshal: %v", err)
		}
		if !bytes.Equal(first, second) {
			rt.Fatalf("round trip not stable:\nfirst:  %s\nsecond: %s", first, second)
		}
	})
}
