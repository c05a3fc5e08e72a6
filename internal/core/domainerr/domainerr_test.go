package domainerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrap_PreservesCodeAndKindAndChainsCause(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(ErrLogAppendFailed, cause)

	require.Equal(t, ErrLogAppendFailed.Code, wrapped.Code)
	require.Equal(t, ErrLogAppendFailed.Kind, wrapped.Kind)
	require.ErrorIs(t, wrapped, cause)
	require.Contains(t, wrapped.Error(), "connection refused")
}

func TestWrap_DoesNotMutateBase(t *testing.T) {
	_ = Wrap(ErrProjectionFailed, errors.New("boom"))
	require.Nil(t, ErrProjectionFailed.Unwrap())
}

func TestAs_BindsDomainError(t *testing.T) {
	var target *Error
	require.True(t, As(ErrUserNotFound, &target))
	require.Equal(t, "user_not_found", target.Code)
}

func TestAs_FalseForPlainError(t *testing.T) {
	var target *Error
	require.False(t, As(errors.New("plain"), &target))
}

func TestIs_MatchesByCodeThroughWrap(t *testing.T) {
	wrapped := Wrap(ErrVersionConflict, errors.New("cas failed"))
	require.True(t, Is(wrapped, ErrVersionConflict))
	require.False(t, Is(wrapped, ErrNotFollowing))
}

func TestIs_FalseForNonDomainError(t *testing.T) {
	require.False(t, Is(errors.New("plain"), ErrUserNotFound))
}

func TestWrap_MatchesSentinelViaStdlibErrorsIs(t *testing.T) {
	wrapped := Wrap(ErrDeadline, errors.New("query canceled"))
	require.ErrorIs(t, wrapped, ErrDeadline)
	require.NotErrorIs(t, wrapped, ErrLogAppendFailed)
}
