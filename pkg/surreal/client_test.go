package surreal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"Valid simple", "summaries", false},
		{"Valid with underscore", "date_added", false},
		{"Valid with numbers", "field1", false},
		{"Valid with mixed case", "ItemId", false},
		{"Invalid space", "item id", true},
		{"Invalid semicolon", "item;id", true},
		{"Invalid dash", "item-id", true},
		{"Invalid special char", "item$", true},
		{"Invalid SQL injection", "summaries; DROP TABLE summaries", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateIdentifier(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBuildWhereClause(t *testing.T) {
	tests := []struct {
		name    string
		filter  map[string]interface{}
		want    string
		wantErr bool
	}{
		{"Empty filter", map[string]interface{}{}, "true", false},
		{"Single filter", map[string]interface{}{"url": "https://example.com/"}, "url = $url", false},
		{"Keys are sorted", map[string]interface{}{"type": "video", "is_played": false}, "is_played = $is_played AND type = $type", false},
		{"Invalid key", map[string]interface{}{"item id": "123"}, "", true},
		{"Injection key", map[string]interface{}{"id; --": "123"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := buildWhereClause(tt.filter)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeHost(t *testing.T) {
	assert.Equal(t, "wss://db.example.com/rpc", NormalizeHost("db.example.com"))
	assert.Equal(t, "ws://localhost:8000/rpc", NormalizeHost("ws://localhost:8000/rpc"))
	assert.Equal(t, "", NormalizeHost(""))
}

func TestToRows(t *testing.T) {
	rows, err := toRows([]interface{}{
		map[string]interface{}{"item_id": "a"},
		"not a row",
		map[string]interface{}{"item_id": "b"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1]["item_id"])

	rows, err = toRows(nil)
	assert.NoError(t, err)
	assert.Empty(t, rows)

	_, err = toRows("scalar")
	assert.Error(t, err)
}
