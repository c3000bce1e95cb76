package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashCommunityID(t *testing.T) {
	id := hashCommunityID("Gamers United")

	assert.GreaterOrEqual(t, id, int64(0))
	assert.Less(t, id, int64(100_000_000))

	// Stable and case-insensitive: the same name always maps to the same id.
	assert.Equal(t, id, hashCommunityID("Gamers United"))
	assert.Equal(t, id, hashCommunityID("gamers united"))
	assert.Equal(t, id, hashCommunityID("GAMERS UNITED"))

	assert.NotEqual(t, id, hashCommunityID("Gamers Divided"))
}

func TestParseSnowflake(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   int64
		wantOK bool
	}{
		{"valid id", "123456789012345678", 123456789012345678, true},
		{"small id", "1", 1, true},
		{"empty", "", 0, false},
		{"not a number", "abc", 0, false},
		{"zero", "0", 0, false},
		{"negative", "-5", 0, false},
		{"overflow", "99999999999999999999999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseSnowflake(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
