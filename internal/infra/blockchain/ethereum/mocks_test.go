package ethereum

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

type JSONRPCClientMock struct {
	mock.Mock
}

type JSONRPCClientMock_Expecter struct {
	mock *mock.Mock
}

func NewJSONRPCClientMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *JSONRPCClientMock {
	m := &JSONRPCClientMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *JSONRPCClientMock) EXPECT() *JSONRPCClientMock_Expecter {
	return &JSONRPCClientMock_Expecter{mock: &m.Mock}
}

func (m *JSONRPCClientMock) Fetch(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	args := m.Called(append([]any{ctx, method}, params...)...)
	data, _ := args.Get(0).(json.RawMessage)
	return data, args.Error(1)
}

func (e *JSONRPCClientMock_Expecter) Fetch(ctx, method any, params ...any) *mock.Call {
	return e.mock.On("Fetch", append([]any{ctx, method}, params...)...)
}
