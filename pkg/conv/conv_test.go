package conv

import (
	"reflect"
	"testing"
)

func TestToFloat64Slice(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   []float64
		wantOK bool
	}{
		{"float64 slice", []float64{1, 2}, []float64{1, 2}, true},
		{"float32 slice", []float32{0.5, 1}, []float64{0.5, 1}, true},
		{"json numbers", []any{1.0, 2.5, int(3)}, []float64{1, 2.5, 3}, true},
		{"mixed with string", []any{1.0, "x"}, nil, false},
		{"not a slice", map[string]any{"values": []any{1.0}}, nil, false},
		{"nil", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToFloat64Slice(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigGetters(t *testing.T) {
	cfg := map[string]any{
		"n":       5,
		"limit":   10.0,
		"name":    "search",
		"ids":     []any{"a", 2.0},
		"filters": []any{map[string]any{"type": "degenerate"}, "junk"},
	}
	if got := ConfigGetInt(cfg, "n", 0); got != 5 {
		t.Errorf("ConfigGetInt(n) = %d", got)
	}
	if got := ConfigGetInt(cfg, "limit", 0); got != 10 {
		t.Errorf("ConfigGetInt(limit) = %d", got)
	}
	if got := ConfigGetInt(cfg, "missing", 7); got != 7 {
		t.Errorf("ConfigGetInt(missing) = %d", got)
	}
	if got := ConfigGet[string](cfg, "name", ""); got != "search" {
		t.Errorf("ConfigGet(name) = %q", got)
	}
	if got := ConfigGet[bool](cfg, "name", true); got != true {
		t.Error("type mismatch should return default")
	}
	if got := SliceAnyToString(cfg["ids"]); !reflect.DeepEqual(got, []string{"a", "2"}) {
		t.Errorf("SliceAnyToString = %v", got)
	}
	if got := ConfigGetMaps(cfg, "filters"); len(got) != 1 || got[0]["type"] != "degenerate" {
		t.Errorf("ConfigGetMaps = %v", got)
	}
}
