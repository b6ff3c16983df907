package gateway

import (
	"github.com/shimmeringbee/somfycul/cover"
	"github.com/stretchr/testify/mock"
)

var _ Mapper = (*MockMapper)(nil)

type MockMapper struct {
	mock.Mock
}

func (m *MockMapper) Covers() []cover.Device {
	args := m.Called()
	return args.Get(0).([]cover.Device)
}

func (m *MockMapper) Cover(id string) (cover.Device, bool) {
	args := m.Called(id)
	return args.Get(0).(cover.Device), args.Bool(1)
}

type MockEventSubscriber struct {
	mock.Mock
}

func (m *MockEventSubscriber) Subscribe(ch chan any) {
	m.Called(ch)
}

func (m *MockEventSubscriber) Unsubscribe(ch chan any) {
	m.Called(ch)
}
