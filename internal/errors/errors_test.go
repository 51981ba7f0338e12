package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/jrsteele09/go-graph-client/internal/errors"
	"github.com/stretchr/testify/require"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return "coded" }

func TestWrapf(t *testing.T) {
	require.NoError(t, errors.Wrapf(nil, "ignored"))

	err := errors.Wrapf(errors.ErrMissingArgument, "command %s", "verify")
	require.EqualError(t, err, "command verify: missing argument")
	require.ErrorIs(t, err, errors.ErrMissingArgument)
	require.NotErrorIs(t, err, errors.ErrInvalidArgument)

	var target *codedError
	wrapped := errors.Wrapf(&codedError{code: 7}, "call")
	require.ErrorAs(t, wrapped, &target)
	require.Equal(t, 7, target.code)
	require.False(t, stderrors.As(stderrors.New("plain"), &target))
}
