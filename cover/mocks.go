package cover

import (
	"context"
	"github.com/stretchr/testify/mock"
)

var _ Device = (*MockDevice)(nil)

type MockDevice struct {
	mock.Mock
}

func (m *MockDevice) Identifier() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDevice) Info() Info {
	args := m.Called()
	return args.Get(0).(Info)
}

func (m *MockDevice) Status() Status {
	args := m.Called()
	return args.Get(0).(Status)
}

func (m *MockDevice) Open(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDevice) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDevice) Stop(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDevice) SetPosition(ctx context.Context, target int) error {
	args := m.Called(ctx, target)
	return args.Error(0)
}

func (m *MockDevice) Prog(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDevice) Reload(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
