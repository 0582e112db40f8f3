package workflows

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

func TestPermanentMarksNotFound(t *testing.T) {
	err := permanent(errors.Join(errors.New("get route r1"), domain.ErrNotFound))
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	require.True(t, appErr.NonRetryable())

	other := errors.New("connection reset")
	require.Same(t, other, permanent(other))
}
