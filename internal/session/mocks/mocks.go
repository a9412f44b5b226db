package mocks

import (
	"context"

	"github.com/rpggio/taskdesk/internal/session"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for session.Store.
type Store struct {
	mock.Mock
}

func (m *Store) Current(ctx context.Context) (*session.Session, error) {
	args := m.Called(ctx)
	if sess, ok := args.Get(0).(*session.Session); ok {
		return sess, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Establish(ctx context.Context, sess session.Session) error {
	args := m.Called(ctx, sess)
	return args.Error(0)
}

func (m *Store) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
