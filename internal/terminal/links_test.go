package terminal

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastLink(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"none", "all done\r\n", ""},
		{"last wins", "see https://a.example/1 and then https://b.example/pr/2\r\n", "https://b.example/pr/2"},
		{"trailing punctuation", "Opened PR (https://github.com/acme/api/pull/7).", "https://github.com/acme/api/pull/7"},
		{"styled", "\x1b[4;34mhttp://localhost:3000/login\x1b[0m\r\n", "http://localhost:3000/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LastLink([]byte(tt.raw)))
		})
	}
}

func TestOpenLastLink(t *testing.T) {
	var opened []string
	opener := OpenerFunc(func(u string) error {
		opened = append(opened, u)
		return nil
	})
	backend := &mockBackend{scrollback: base64.StdEncoding.EncodeToString([]byte("PR: https://github.com/acme/api/pull/9\r\n"))}

	link, err := OpenLastLink(context.Background(), backend, "s1", opener)
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/acme/api/pull/9", link)
	assert.Equal(t, []string{link}, opened)
}

func TestOpenLastLink_Errors(t *testing.T) {
	ctx := context.Background()
	opener := OpenerFunc(func(string) error { return nil })

	_, err := OpenLastLink(ctx, &mockBackend{scrollback: base64.StdEncoding.EncodeToString([]byte("no links"))}, "s1", opener)
	assert.ErrorIs(t, err, ErrNoLink)

	_, err = OpenLastLink(ctx, &mockBackend{scrollErr: errors.New("gone")}, "s1", opener)
	assert.Error(t, err)

	_, err = OpenLastLink(ctx, &mockBackend{}, "s1", nil)
	assert.Error(t, err)
}
