package tx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBeginner struct {
	calls int
	opts  *sql.TxOptions
}

func (f *failingBeginner) BeginTx(_ context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	f.calls++
	f.opts = opts
	return nil, errors.New("connection refused")
}

func TestWithTxIgnoresNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}

func TestRunReusesOuterTransaction(t *testing.T) {
	ctx := WithTx(context.Background(), &sql.Tx{})
	db := &failingBeginner{}

	called := false
	err := Run(ctx, db, func(inner context.Context) error {
		called = true
		_, ok := From(inner)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Zero(t, db.calls)
}

func TestRunBeginFailure(t *testing.T) {
	db := &failingBeginner{}
	err := Run(context.Background(), db, func(context.Context) error {
		t.Fatal("fn must not run without a transaction")
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin tx")
}

func TestRunWithPassesOptions(t *testing.T) {
	db := &failingBeginner{}
	err := RunWith(context.Background(), db, ReadSnapshot, func(context.Context) error { return nil })

	require.Error(t, err)
	require.NotNil(t, db.opts)
	assert.Equal(t, sql.LevelRepeatableRead, db.opts.Isolation)
	assert.True(t, db.opts.ReadOnly)
}

func TestRunUsesDriverDefaults(t *testing.T) {
	db := &failingBeginner{}
	_ = Run(context.Background(), db, func(context.Context) error { return nil })

	assert.Equal(t, 1, db.calls)
	assert.Nil(t, db.opts)
}
