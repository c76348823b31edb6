package cmdutil

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/moderation"
	"github.com/stretchr/testify/assert"
)

func TestErrorKey(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel", moderation.ErrAlreadyMuted, "errors.already_muted"},
		{"wrapped sentinel", fmt.Errorf("%w: 12 of 3", moderation.ErrWarningIndex), "errors.warning_index"},
		{"not banned", moderation.ErrNotBanned, "commands.unban.not_banned"},
		{"database", database.ErrNotConnected, "errors.database"},
		{"unknown", errors.New("boom"), "errors.generic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKey(tt.err))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "hel…", Truncate("hello", 4))
	assert.Equal(t, "ñá…", Truncate("ñáéí", 3))
	assert.Equal(t, "h", Truncate("hello", 1))
}

func TestTimestamps(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	assert.Equal(t, "<t:1700000000:d>", Date(ts))
	assert.Equal(t, "<t:1700000000:R>", Relative(ts))
	assert.Equal(t, "<@42>", Mention("42"))
}
