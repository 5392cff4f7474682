package cli

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type AgentMock struct {
	mock.Mock
}

type AgentMock_Expecter struct {
	mock *mock.Mock
}

func NewAgentMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *AgentMock {
	m := &AgentMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *AgentMock) EXPECT() *AgentMock_Expecter {
	return &AgentMock_Expecter{mock: &m.Mock}
}

func (m *AgentMock) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (e *AgentMock_Expecter) Start(ctx any) *mock.Call {
	return e.mock.On("Start", ctx)
}

func (m *AgentMock) Close() {
	m.Called()
}

func (e *AgentMock_Expecter) Close() *mock.Call {
	return e.mock.On("Close")
}
