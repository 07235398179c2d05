package journals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatReference(t *testing.T) {
	date := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "GL-202603-0001", FormatReference(PrefixGeneral, date, 1))
	assert.Equal(t, "DEPR-202603-0042", FormatReference(PrefixDepreciation, date, 42))
	// the pad widens past 9999 instead of wrapping
	assert.Equal(t, "GL-202603-10001", FormatReference(PrefixGeneral, date, 10001))
}

func TestOpeningReference(t *testing.T) {
	assert.Equal(t, "BAL-INIT-2026", OpeningReference(2026))
}

func TestParseReference(t *testing.T) {
	prefix, month, seq, err := ParseReference("JE-202601-0007")
	require.NoError(t, err)
	assert.Equal(t, "JE", prefix)
	assert.Equal(t, "202601", month)
	assert.Equal(t, int64(7), seq)

	for _, malformed := range []string{"", "GL-202601", "GL-2026-0001", "GL-202601-xyz"} {
		_, _, _, err := ParseReference(malformed)
		assert.Error(t, err, malformed)
	}
}
