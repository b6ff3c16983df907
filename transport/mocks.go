package transport

import "github.com/stretchr/testify/mock"

var _ Link = (*MockLink)(nil)

type MockLink struct {
	mock.Mock
}

func (m *MockLink) Send(frame []byte) error {
	args := m.Called(frame)
	return args.Error(0)
}
