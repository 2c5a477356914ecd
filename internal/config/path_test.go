package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("TUNEBRIDGE_TEST_DIR", "/srv/music")

	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "empty path",
			path: "",
			want: "",
		},
		{
			name: "tilde prefix",
			path: "~/.local/share/tunebridge/tunebridge.db",
			want: filepath.Join(home, ".local", "share", "tunebridge", "tunebridge.db"),
		},
		{
			name: "bare tilde",
			path: "~",
			want: home,
		},
		{
			name: "environment variable",
			path: "$TUNEBRIDGE_TEST_DIR/tunebridge.db",
			want: "/srv/music/tunebridge.db",
		},
		{
			name: "plain path unchanged",
			path: "/var/lib/tunebridge.db",
			want: "/var/lib/tunebridge.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ExpandPath(tt.path))
		})
	}
}
