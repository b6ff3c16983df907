package state

import (
	"context"
	"github.com/stretchr/testify/mock"
)

var _ Gateway = (*MockGateway)(nil)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Load(ctx context.Context, id string) (Record, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Record), args.Bool(1), args.Error(2)
}

func (m *MockGateway) Save(ctx context.Context, id string, r Record) error {
	args := m.Called(ctx, id, r)
	return args.Error(0)
}
