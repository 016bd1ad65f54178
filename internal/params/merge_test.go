package params

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		target  map[string]any
		sources []map[string]any
		want    map[string]any
	}{
		{
			name:    "later sources win",
			target:  map[string]any{"loading": false},
			sources: []map[string]any{{"loading": true, "url": "/a"}, {"url": "/b"}},
			want:    map[string]any{"loading": true, "url": "/b"},
		},
		{
			name:    "undefined never overwrites",
			target:  map[string]any{"repeatable": true},
			sources: []map[string]any{{"repeatable": Undefined, "extra": Undefined}},
			want:    map[string]any{"repeatable": true},
		},
		{
			name:    "explicit nil overwrites",
			target:  map[string]any{"params": map[string]any{"a": 1}},
			sources: []map[string]any{{"params": nil}},
			want:    map[string]any{"params": nil},
		},
		{
			name:    "nil target becomes a map",
			target:  nil,
			sources: []map[string]any{nil, {"a": "x"}},
			want:    map[string]any{"a": "x"},
		},
		{
			name:    "shallow replaces nested maps",
			target:  map[string]any{"headers": map[string]any{"a": "1"}},
			sources: []map[string]any{{"headers": map[string]any{"b": "2"}}},
			want:    map[string]any{"headers": map[string]any{"b": "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.target, tt.sources...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name    string
		target  map[string]any
		sources []map[string]any
		want    map[string]any
	}{
		{
			name:    "nested maps merge",
			target:  map[string]any{"headers": map[string]any{"a": "1"}},
			sources: []map[string]any{{"headers": map[string]any{"b": "2"}}},
			want:    map[string]any{"headers": map[string]any{"a": "1", "b": "2"}},
		},
		{
			name:    "slices merge by index",
			target:  map[string]any{"ids": []any{1, 2, 3}},
			sources: []map[string]any{{"ids": []any{9}}},
			want:    map[string]any{"ids": []any{9, 2, 3}},
		},
		{
			name:    "slice never merges into map",
			target:  map[string]any{"v": map[string]any{"0": "x"}},
			sources: []map[string]any{{"v": []any{"y"}}},
			want:    map[string]any{"v": []any{"y"}},
		},
		{
			name:    "map never merges into slice",
			target:  map[string]any{"v": []any{"x"}},
			sources: []map[string]any{{"v": map[string]any{"k": "y"}}},
			want:    map[string]any{"v": map[string]any{"k": "y"}},
		},
		{
			name:    "scalar replaced by map",
			target:  map[string]any{"v": 3},
			sources: []map[string]any{{"v": map[string]any{"k": 1}}},
			want:    map[string]any{"v": map[string]any{"k": 1}},
		},
		{
			name:    "undefined inside nested map is skipped",
			target:  map[string]any{"p": map[string]any{"a": 1}},
			sources: []map[string]any{{"p": map[string]any{"a": Undefined, "b": 2}}},
			want:    map[string]any{"p": map[string]any{"a": 1, "b": 2}},
		},
		{
			name:    "slice grows",
			target:  map[string]any{"ids": []any{1}},
			sources: []map[string]any{{"ids": []any{1, 2, 3}}},
			want:    map[string]any{"ids": []any{1, 2, 3}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeepMerge(tt.target, tt.sources...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DeepMerge() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDeepMerge_DoesNotAliasSources(t *testing.T) {
	src := map[string]any{"headers": map[string]any{"a": "1"}}
	got := DeepMerge(map[string]any{}, src)

	got["headers"].(map[string]any)["b"] = "2"
	if _, ok := src["headers"].(map[string]any)["b"]; ok {
		t.Fatal("deep merge wrote through to the source map")
	}
}

func TestMerge_IdenticalValueIsNotRewritten(t *testing.T) {
	nested := map[string]any{"x": 1}
	target := map[string]any{"a": 1, "n": nested}

	got := DeepMerge(target, map[string]any{"a": 1, "n": nested})

	if len(got) != 2 {
		t.Fatalf("unexpected result %v", got)
	}
	// Same map value returned, nested map kept by identity.
	got["probe"] = true
	if _, ok := target["probe"]; !ok {
		t.Error("DeepMerge() returned a different map than the target")
	}
	delete(target, "probe")
	nested["y"] = 2
	if got["n"].(map[string]any)["y"] != 2 {
		t.Error("identical nested map was replaced instead of kept")
	}
}

func TestExtend(t *testing.T) {
	t.Run("non-map target coerced", func(t *testing.T) {
		got := Extend(false, "not a map", map[string]any{"a": 1})
		if diff := cmp.Diff(map[string]any{"a": 1}, got); diff != "" {
			t.Errorf("Extend() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("non-map sources skipped", func(t *testing.T) {
		got := Extend(true, nil, 42, nil, []any{1}, map[string]any{"b": true})
		if diff := cmp.Diff(map[string]any{"b": true}, got); diff != "" {
			t.Errorf("Extend() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("uncomparable values do not panic", func(t *testing.T) {
		type holder struct{ V any }
		target := map[string]any{"h": holder{V: []int{1}}}
		got := Extend(false, target, map[string]any{"h": holder{V: []int{1}}})
		if _, ok := got["h"].(holder); !ok {
			t.Errorf("Extend() lost value: %v", got)
		}
	})
}
