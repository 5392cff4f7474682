package chainstream

import (
	"context"

	"github.com/gabapcia/transferwatch/internal/pkg/types"
	"github.com/stretchr/testify/mock"
)

type BlockchainMock struct {
	mock.Mock
}

type BlockchainMock_Expecter struct {
	mock *mock.Mock
}

func NewBlockchainMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *BlockchainMock {
	m := &BlockchainMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *BlockchainMock) EXPECT() *BlockchainMock_Expecter {
	return &BlockchainMock_Expecter{mock: &m.Mock}
}

func (m *BlockchainMock) FetchBlockByHeight(ctx context.Context, height types.Hex) (Block, error) {
	args := m.Called(ctx, height)
	block, _ := args.Get(0).(Block)
	return block, args.Error(1)
}

func (e *BlockchainMock_Expecter) FetchBlockByHeight(ctx, height any) *mock.Call {
	return e.mock.On("FetchBlockByHeight", ctx, height)
}

func (m *BlockchainMock) Subscribe(ctx context.Context, fromHeight types.Hex) (<-chan BlockchainEvent, error) {
	args := m.Called(ctx, fromHeight)
	eventsCh, _ := args.Get(0).(<-chan BlockchainEvent)
	return eventsCh, args.Error(1)
}

func (e *BlockchainMock_Expecter) Subscribe(ctx, fromHeight any) *mock.Call {
	return e.mock.On("Subscribe", ctx, fromHeight)
}

type CheckpointStorageMock struct {
	mock.Mock
}

type CheckpointStorageMock_Expecter struct {
	mock *mock.Mock
}

func NewCheckpointStorageMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *CheckpointStorageMock {
	m := &CheckpointStorageMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *CheckpointStorageMock) EXPECT() *CheckpointStorageMock_Expecter {
	return &CheckpointStorageMock_Expecter{mock: &m.Mock}
}

func (m *CheckpointStorageMock) SaveCheckpoint(ctx context.Context, network string, height types.Hex) error {
	return m.Called(ctx, network, height).Error(0)
}

func (e *CheckpointStorageMock_Expecter) SaveCheckpoint(ctx, network, height any) *mock.Call {
	return e.mock.On("SaveCheckpoint", ctx, network, height)
}

func (m *CheckpointStorageMock) LoadLatestCheckpoint(ctx context.Context, network string) (types.Hex, error) {
	args := m.Called(ctx, network)
	height, _ := args.Get(0).(types.Hex)
	return height, args.Error(1)
}

func (e *CheckpointStorageMock_Expecter) LoadLatestCheckpoint(ctx, network any) *mock.Call {
	return e.mock.On("LoadLatestCheckpoint", ctx, network)
}
