package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storeerr "github.com/mrz1836/skillmint/pkg/errors"
)

var errNoTTY = errors.New("no tty")

func TestTerminalPrompter_Passphrase(t *testing.T) {
	withMockPrompts(t, []byte("from-terminal"), false, "")

	got, err := terminalPrompter{secret: "from-env"}.Passphrase(context.Background(), "Unlock")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)

	got, err = terminalPrompter{}.Passphrase(context.Background(), "Unlock")
	require.NoError(t, err)
	assert.Equal(t, "from-terminal", got)
}

func TestTerminalPrompter_PassphraseError(t *testing.T) {
	orig := promptPasswordFn
	t.Cleanup(func() { promptPasswordFn = orig })
	promptPasswordFn = func(string) ([]byte, error) { return nil, errNoTTY }

	_, err := terminalPrompter{}.Passphrase(context.Background(), "Unlock")
	require.ErrorIs(t, err, errNoTTY)
}

func TestTerminalPrompter_Confirm(t *testing.T) {
	withMockPrompts(t, nil, false, "")

	ok, err := terminalPrompter{autoApprove: true}.Confirm(context.Background(), "Sign?")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = terminalPrompter{}.Confirm(context.Background(), "Sign?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPromptNewPassword(t *testing.T) {
	tests := []struct {
		name    string
		entries []string
		want    string
		wantErr bool
	}{
		{name: "matching", entries: []string{"long enough", "long enough"}, want: "long enough"},
		{name: "too short", entries: []string{"short"}, wantErr: true},
		{name: "mismatch", entries: []string{"long enough", "different!"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orig := promptPasswordFn
			t.Cleanup(func() { promptPasswordFn = orig })

			calls := 0
			promptPasswordFn = func(string) ([]byte, error) {
				entry := tc.entries[calls]
				calls++
				return []byte(entry), nil
			}

			got, err := promptNewPassword()
			if tc.wantErr {
				require.ErrorIs(t, err, storeerr.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}
