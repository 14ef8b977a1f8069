package errkind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsMatchesAssignedKind(t *testing.T) {
	err := New(Protocol, "merge conflict")
	require.True(t, Is(err, Protocol))
	require.False(t, Is(err, ChainTransient))
}

func TestIsFalseForPlainError(t *testing.T) {
	require.False(t, Is(errors.New("plain"), Precondition))
}

func TestWrapPreservesUnderlyingMessage(t *testing.T) {
	base := errors.New("connection refused")
	wrapped := Wrap(ChainTransient, base)

	require.True(t, Is(wrapped, ChainTransient))
	require.Contains(t, wrapped.Error(), "connection refused")
	require.ErrorIs(t, wrapped, base)
}

func TestWrapNilIsNil(t *testing.T) {
	var err error
	wrapped := Wrap(Cryptographic, err)
	require.Nil(t, wrapped)
}

func TestNewfFormats(t *testing.T) {
	err := Newf(Protocol, "bad slot %v/%d", "take_1", 3)
	require.Equal(t, "protocol-violated: bad slot take_1/3", err.Error())
}

func TestKindStrings(t *testing.T) {
	cases := map[Kind]string{
		Precondition:   "precondition-violated",
		Protocol:       "protocol-violated",
		ChainTransient: "chain-transient",
		Cryptographic:  "cryptographic",
	}
	for kind, want := range cases {
		require.Equal(t, want, kind.String())
	}
}

func TestWrapAttachesStack(t *testing.T) {
	err := Wrap(Protocol, fmt.Errorf("boom"))
	require.NotEmpty(t, err.ErrorStack())
}
