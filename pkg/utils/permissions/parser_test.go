package permissions

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	testCases := []struct {
		in      string
		want    os.FileMode
		wantErr bool
	}{
		{in: "", want: DefaultFileMode},
		{in: "644", want: 0o644},
		{in: "0600", want: 0o600},
		{in: "0o755", want: 0o755},
		{in: "0", want: 0},
		{in: "888", wantErr: true},
		{in: "1777", wantErr: true},
		{in: "rw-r--r--", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseMode(tc.in)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFormatAndDirMode(t *testing.T) {
	assert.Equal(t, "0644", Format(0o644))
	assert.Equal(t, "0600", Format(os.ModeDir|0o600))
	assert.Equal(t, os.FileMode(0o755), DirMode(0o644))
	assert.Equal(t, os.FileMode(0o700), DirMode(0o600))
	assert.Equal(t, DefaultDirMode, DirMode(DefaultFileMode))
}
