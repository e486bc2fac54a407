package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestDecodeRecord(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		wantKey string
	}{
		{
			name:    "complete record",
			input:   `{"feiyu":"1.0.0","key":"A","link":"https://x/a.json","lastUpdate":1709781073831,"config":{"feiyu":"1.0.0"}}`,
			wantKey: "A",
		},
		{
			name:  "missing key is allowed",
			input: `{"feiyu":"1.0.0","config":{"feiyu":"1.0.0"}}`,
		},
		{
			name:    "missing record marker",
			input:   `{"key":"A","config":{"feiyu":"1.0.0"}}`,
			wantErr: true,
		},
		{
			name:    "empty record marker",
			input:   `{"feiyu":"","key":"A","config":{"feiyu":"1.0.0"}}`,
			wantErr: true,
		},
		{
			name:    "truthy non-string record marker",
			input:   `{"feiyu":1,"key":"B","config":{"feiyu":true}}`,
			wantKey: "B",
		},
		{
			name:    "false record marker",
			input:   `{"feiyu":false,"key":"A","config":{"feiyu":"1.0.0"}}`,
			wantErr: true,
		},
		{
			name:    "falsy config marker",
			input:   `{"feiyu":"1.0.0","key":"A","config":{"feiyu":0}}`,
			wantErr: true,
		},
		{
			name:    "missing config",
			input:   `{"feiyu":"1.0.0","key":"A"}`,
			wantErr: true,
		},
		{
			name:    "config is not an object",
			input:   `{"feiyu":"1.0.0","key":"A","config":"x"}`,
			wantErr: true,
		},
		{
			name:    "not an object",
			input:   `"A"`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := DecodeRecord(decodeJSON(t, tt.input))
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, sub)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKey, sub.Key)
			assert.True(t, sub.Valid())
		})
	}
}

func TestDecodeRecordKeepsFields(t *testing.T) {
	sub, err := DecodeRecord(decodeJSON(t, `{"feiyu":"1.0.0","key":"A","link":"https://x/a.json","lastUpdate":1709781073831,"config":{"feiyu":"1.0.0","foo":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "https://x/a.json", sub.Link)
	assert.Equal(t, int64(1709781073831), sub.LastUpdate)
	assert.Equal(t, float64(1), sub.Config["foo"])
}

func TestNewerThanCurrent(t *testing.T) {
	assert.False(t, NewerThanCurrent(Version))
	assert.False(t, NewerThanCurrent("0.9.0"))
	assert.True(t, NewerThanCurrent("1.1.0"))
	assert.True(t, NewerThanCurrent("v2.0.0"))
	assert.False(t, NewerThanCurrent("not-a-version"))

	cmp, err := CompareVersions("1.0.0", "1.0.1")
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)
}

func TestDecodeRecordMarkerVersion(t *testing.T) {
	sub, err := DecodeRecord(decodeJSON(t, `{"feiyu":"0.9.0","key":"A","config":{"feiyu":"0.9.0"}}`))
	require.NoError(t, err)
	assert.Equal(t, "0.9.0", sub.Feiyu)

	sub, err = DecodeRecord(decodeJSON(t, `{"feiyu":1,"key":"A","config":{"feiyu":1}}`))
	require.NoError(t, err)
	assert.Equal(t, Version, sub.Feiyu)
}
