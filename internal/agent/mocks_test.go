package agent

import (
	"context"
	"time"

	"github.com/gabapcia/transferwatch/internal/chainstream"
	"github.com/stretchr/testify/mock"
)

type testingT interface {
	mock.TestingT
	Cleanup(func())
}

type ChainstreamMock struct {
	mock.Mock
}

type ChainstreamMock_Expecter struct {
	mock *mock.Mock
}

func NewChainstreamMock(t testingT) *ChainstreamMock {
	m := &ChainstreamMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ChainstreamMock) EXPECT() *ChainstreamMock_Expecter {
	return &ChainstreamMock_Expecter{mock: &m.Mock}
}

func (m *ChainstreamMock) Start(ctx context.Context) (<-chan chainstream.ObservedBlock, error) {
	args := m.Called(ctx)
	blocksCh, _ := args.Get(0).(<-chan chainstream.ObservedBlock)
	return blocksCh, args.Error(1)
}

func (e *ChainstreamMock_Expecter) Start(ctx any) *mock.Call {
	return e.mock.On("Start", ctx)
}

func (m *ChainstreamMock) Commit(ctx context.Context, block chainstream.ObservedBlock) error {
	return m.Called(ctx, block).Error(0)
}

func (e *ChainstreamMock_Expecter) Commit(ctx, block any) *mock.Call {
	return e.mock.On("Commit", ctx, block)
}

func (m *ChainstreamMock) Close() {
	m.Called()
}

func (e *ChainstreamMock_Expecter) Close() *mock.Call {
	return e.mock.On("Close")
}

type IdempotencyGuardMock struct {
	mock.Mock
}

type IdempotencyGuardMock_Expecter struct {
	mock *mock.Mock
}

func NewIdempotencyGuardMock(t testingT) *IdempotencyGuardMock {
	m := &IdempotencyGuardMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *IdempotencyGuardMock) EXPECT() *IdempotencyGuardMock_Expecter {
	return &IdempotencyGuardMock_Expecter{mock: &m.Mock}
}

func (m *IdempotencyGuardMock) ClaimBlock(ctx context.Context, network, blockHash string, ttl time.Duration) error {
	return m.Called(ctx, network, blockHash, ttl).Error(0)
}

func (e *IdempotencyGuardMock_Expecter) ClaimBlock(ctx, network, blockHash, ttl any) *mock.Call {
	return e.mock.On("ClaimBlock", ctx, network, blockHash, ttl)
}

func (m *IdempotencyGuardMock) MarkBlockComplete(ctx context.Context, network, blockHash string) error {
	return m.Called(ctx, network, blockHash).Error(0)
}

func (e *IdempotencyGuardMock_Expecter) MarkBlockComplete(ctx, network, blockHash any) *mock.Call {
	return e.mock.On("MarkBlockComplete", ctx, network, blockHash)
}

func (m *IdempotencyGuardMock) ReleaseBlock(ctx context.Context, network, blockHash string) error {
	return m.Called(ctx, network, blockHash).Error(0)
}

func (e *IdempotencyGuardMock_Expecter) ReleaseBlock(ctx, network, blockHash any) *mock.Call {
	return e.mock.On("ReleaseBlock", ctx, network, blockHash)
}

type FindingPublisherMock struct {
	mock.Mock
}

type FindingPublisherMock_Expecter struct {
	mock *mock.Mock
}

func NewFindingPublisherMock(t testingT) *FindingPublisherMock {
	m := &FindingPublisherMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *FindingPublisherMock) EXPECT() *FindingPublisherMock_Expecter {
	return &FindingPublisherMock_Expecter{mock: &m.Mock}
}

func (m *FindingPublisherMock) PublishReports(ctx context.Context, reports []Report) error {
	return m.Called(ctx, reports).Error(0)
}

func (e *FindingPublisherMock_Expecter) PublishReports(ctx, reports any) *mock.Call {
	return e.mock.On("PublishReports", ctx, reports)
}
