package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "leadgate/pkg/domain-errors"
)

func TestBurst(t *testing.T) {
	res := Burst(context.Background(), 9, func(_ context.Context, idx int) error {
		switch idx % 3 {
		case 0:
			return nil
		case 1:
			return dErrors.New(dErrors.CodeRateLimited, "")
		default:
			return errors.New("boom")
		}
	})

	assert.Equal(t, int32(3), res.Allowed)
	assert.Equal(t, int32(3), res.Limited)
	assert.Equal(t, int32(3), res.Failed)
	assert.Equal(t, int32(9), res.Total())
	require.Error(t, res.FirstErr)
	assert.Equal(t, "boom", res.FirstErr.Error())
}

func TestBurstPassesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "lead")

	res := Burst(ctx, 4, func(ctx context.Context, _ int) error {
		if ctx.Value(key{}) != "lead" {
			return errors.New("context lost")
		}
		return nil
	})

	assert.Equal(t, int32(4), res.Allowed)
	assert.NoError(t, res.FirstErr)
}
