package webmaster

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

type countingUserInfo struct {
	calls int
	err   error
}

func (c *countingUserInfo) GetUserInfo(context.Context) (*domain.UserInfo, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &domain.UserInfo{UserID: "42"}, nil
}

func TestAccount_CachesUserID(t *testing.T) {
	api := &countingUserInfo{}
	acc := NewAccount(api)

	for range 3 {
		id, err := acc.UserID(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "42", id)
	}
	assert.Equal(t, 1, api.calls)

	acc.Reset()
	_, err := acc.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)
}

func TestAccount_ErrorNotCached(t *testing.T) {
	api := &countingUserInfo{err: errors.New("boom")}
	acc := NewAccount(api)

	_, err := acc.UserID(context.Background())
	require.Error(t, err)

	api.err = nil
	id, err := acc.UserID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", id)
}
