package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, false},
		{"false", false, false},
		{"true", true, true},
		{"empty string", "", false},
		{"version string", "1.0.0", true},
		{"zero", float64(0), false},
		{"one", float64(1), true},
		{"json number zero", json.Number("0"), false},
		{"json number", json.Number("2"), true},
		{"object", map[string]any{}, true},
		{"array", []any{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truthy(tt.v))
		})
	}
}

func TestAsConfig(t *testing.T) {
	cfg, ok := AsConfig(map[string]any{"feiyu": "1.0.0", "foo": float64(1)})
	require.True(t, ok)
	assert.Equal(t, float64(1), cfg["foo"])

	_, ok = AsConfig(map[string]any{"foo": 1})
	assert.False(t, ok)

	_, ok = AsConfig(map[string]any{"feiyu": false})
	assert.False(t, ok)

	_, ok = AsConfig([]any{map[string]any{"feiyu": "1.0.0"}})
	assert.False(t, ok)

	_, ok = AsConfig(nil)
	assert.False(t, ok)
}

func TestSubscribeClone(t *testing.T) {
	orig := &Subscribe{
		Feiyu:      Version,
		Key:        "A",
		Link:       "https://example.com/a.json",
		LastUpdate: 42,
		Config: map[string]any{
			"feiyu": "1.0.0",
			"sites": map[string]any{"api": []any{"x"}},
		},
	}

	clone := orig.Clone()
	if diff := cmp.Diff(orig, clone); diff != "" {
		t.Fatalf("clone mismatch (-want +got):\n%s", diff)
	}

	clone.Config["sites"].(map[string]any)["api"] = []any{"y"}
	clone.Key = "B"
	assert.Equal(t, []any{"x"}, orig.Config["sites"].(map[string]any)["api"])
	assert.Equal(t, "A", orig.Key)

	var nilSub *Subscribe
	assert.Nil(t, nilSub.Clone())
}

func TestDefaultSubscribe(t *testing.T) {
	def := DefaultSubscribe()
	assert.Equal(t, DefaultKey, def.Key)
	assert.Equal(t, Version, def.Feiyu)
	assert.Equal(t, DefaultLastUpdate, def.LastUpdate)
	assert.Empty(t, def.Link)
	assert.True(t, def.Valid())

	// 每次返回独立副本
	def.Config["feiyu"] = ""
	assert.True(t, DefaultSubscribe().Valid())
}

func TestSubscribeJSONShape(t *testing.T) {
	sub := &Subscribe{Feiyu: Version, Key: "local", LastUpdate: 1, Config: map[string]any{"feiyu": "1.0.0"}}
	data, err := json.Marshal(sub)
	require.NoError(t, err)
	assert.JSONEq(t, `{"feiyu":"1.0.0","key":"local","lastUpdate":1,"config":{"feiyu":"1.0.0"}}`, string(data))
}
