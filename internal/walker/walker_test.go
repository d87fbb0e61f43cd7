package walker

import (
	"strings"
	"testing"
	"time"
)

func upper(s string) string { return strings.ToUpper(s) }

func TestWalk_StringLeaf(t *testing.T) {
	got := Walk("hello", upper)
	if got != "HELLO" {
		t.Errorf("got %v, want HELLO", got)
	}
}

func TestWalk_NonStringLeavesPassThrough(t *testing.T) {
	for _, v := range []any{true, false, 3.14, nil} {
		got := Walk(v, upper)
		if got != v {
			t.Errorf("Walk(%v) = %v, want unchanged", v, got)
		}
	}
}

func TestWalk_Map(t *testing.T) {
	in := map[string]any{"a": "x", "b": 1.0, "c": map[string]any{"d": "y"}}
	got := Walk(in, upper).(map[string]any)

	if got["a"] != "X" {
		t.Errorf("a = %v, want X", got["a"])
	}
	if got["b"] != 1.0 {
		t.Errorf("b = %v, want 1.0", got["b"])
	}
	inner := got["c"].(map[string]any)
	if inner["d"] != "Y" {
		t.Errorf("c.d = %v, want Y", inner["d"])
	}
}

func TestWalk_SliceOrderPreserved(t *testing.T) {
	in := []any{"a", "b", "c"}
	got := Walk(in, upper).([]any)
	want := []any{"A", "B", "C"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestWalk_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"a": "x"}
	_ = Walk(in, upper)
	if in["a"] != "x" {
		t.Error("Walk must not mutate its input")
	}
}

func TestWalk_Deterministic(t *testing.T) {
	in := map[string]any{"a": []any{"x", "y"}, "b": "z"}
	first := Walk(in, upper)
	second := Walk(in, upper)

	fb, _ := marshalStable(first)
	sb, _ := marshalStable(second)
	if fb != sb {
		t.Errorf("two walks of the same input produced different output: %q vs %q", fb, sb)
	}
}

func TestWalk_CyclicMapReturnedUnchanged(t *testing.T) {
	cyclic := map[string]any{"name": "root"}
	cyclic["self"] = cyclic

	done := make(chan any, 1)
	go func() {
		done <- Walk(cyclic, upper)
	}()

	select {
	case got := <-done:
		m := got.(map[string]any)
		if m["name"] != "ROOT" {
			t.Errorf("name = %v, want ROOT", m["name"])
		}
		self := m["self"].(map[string]any)
		if self["name"] != "root" {
			t.Error("re-entered cyclic container should be returned unchanged, not re-walked")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Walk did not terminate on cyclic input")
	}
}

func TestWalk_CyclicSliceReturnedUnchanged(t *testing.T) {
	cyclic := []any{"a", "b"}
	cyclic[1] = cyclic

	done := make(chan any, 1)
	go func() {
		done <- Walk(cyclic, upper)
	}()

	select {
	case got := <-done:
		s := got.([]any)
		if s[0] != "A" {
			t.Errorf("index 0 = %v, want A", s[0])
		}
		if _, ok := s[1].([]any); !ok {
			t.Errorf("index 1 should remain the cyclic slice, got %T", s[1])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Walk did not terminate on cyclic input")
	}
}

func marshalStable(v any) (string, error) {
	// Cheap deterministic stringification for the determinism test; avoids
	// depending on encoding/json's map key sorting guarantees explicitly.
	return sprintStable(v), nil
}

func sprintStable(v any) string {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sortStrings(keys)
		out := "{"
		for _, k := range keys {
			out += k + ":" + sprintStable(val[k]) + ","
		}
		return out + "}"
	case []any:
		out := "["
		for _, e := range val {
			out += sprintStable(e) + ","
		}
		return out + "]"
	default:
		return toString(val)
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	default:
		return ""
	}
}
