package errs

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewError_UsesTemplate(t *testing.T) {
	req := require.New(t)

	err := NewError(ErrRoomNotFound)

	req.Equal(ErrRoomNotFound, err.Code)
	req.Equal(http.StatusNotFound, err.Status)
	req.Equal("Session does not exist.", err.Message)
}

func TestNewError_UnknownCodeFallsBack(t *testing.T) {
	req := require.New(t)

	err := NewError(9999)

	req.Equal(ErrUnknown, err.Code)
	req.Equal(http.StatusInternalServerError, err.Status)
}

func TestHasCode_MatchesWrapped(t *testing.T) {
	req := require.New(t)

	wrapped := fmt.Errorf("connect: %w", NewError(ErrIdentityMissing))

	req.True(HasCode(wrapped, ErrIdentityMissing))
	req.False(HasCode(wrapped, ErrRoomNotFound))
	req.False(HasCode(fmt.Errorf("plain"), ErrRoomNotFound))
}
