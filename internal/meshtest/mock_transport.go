package meshtest

import (
	"context"

	"github.com/lucamoroz/mesh-go/pkg/mesh"
	"github.com/lucamoroz/mesh-go/pkg/model"
	mock "github.com/stretchr/testify/mock"
)

// MockTransport is a testify mock for mesh.Transport.
type MockTransport struct {
	mock.Mock
}

var _ mesh.Transport = (*MockTransport)(nil)

type MockTransport_Expecter struct {
	mock *mock.Mock
}

func (_m *MockTransport) EXPECT() *MockTransport_Expecter {
	return &MockTransport_Expecter{mock: &_m.Mock}
}

// Send provides a mock function with given fields: ctx, sc, access
func (_m *MockTransport) Send(ctx context.Context, sc mesh.SendContext, access []byte) error {
	ret := _m.Called(ctx, sc, access)

	if len(ret) == 0 {
		panic("no return value specified for Send")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, mesh.SendContext, []byte) error); ok {
		r0 = rf(ctx, sc, access)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockTransport_Send_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Send'
type MockTransport_Send_Call struct {
	*mock.Call
}

// Send is a helper method to define mock.On call
func (_e *MockTransport_Expecter) Send(ctx interface{}, sc interface{}, access interface{}) *MockTransport_Send_Call {
	return &MockTransport_Send_Call{Call: _e.mock.On("Send", ctx, sc, access)}
}

func (_c *MockTransport_Send_Call) Run(run func(ctx context.Context, sc mesh.SendContext, access []byte)) *MockTransport_Send_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(mesh.SendContext), args[2].([]byte))
	})
	return _c
}

func (_c *MockTransport_Send_Call) Return(_a0 error) *MockTransport_Send_Call {
	_c.Call.Return(_a0)
	return _c
}

// Publish provides a mock function with given fields: ctx, src, pub, access
func (_m *MockTransport) Publish(ctx context.Context, src model.Address, pub model.Publication, access []byte) error {
	ret := _m.Called(ctx, src, pub, access)

	if len(ret) == 0 {
		panic("no return value specified for Publish")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Address, model.Publication, []byte) error); ok {
		r0 = rf(ctx, src, pub, access)
	} else {
		r0 = ret.Error(0)
	}
	return r0
}

// MockTransport_Publish_Call is a *mock.Call that shadows Run/Return methods with type explicit version for method 'Publish'
type MockTransport_Publish_Call struct {
	*mock.Call
}

// Publish is a helper method to define mock.On call
func (_e *MockTransport_Expecter) Publish(ctx interface{}, src interface{}, pub interface{}, access interface{}) *MockTransport_Publish_Call {
	return &MockTransport_Publish_Call{Call: _e.mock.On("Publish", ctx, src, pub, access)}
}

func (_c *MockTransport_Publish_Call) Run(run func(ctx context.Context, src model.Address, pub model.Publication, access []byte)) *MockTransport_Publish_Call {
	_c.Call.Run(func(args mock.Arguments) {
		run(args[0].(context.Context), args[1].(model.Address), args[2].(model.Publication), args[3].([]byte))
	})
	return _c
}

func (_c *MockTransport_Publish_Call) Return(_a0 error) *MockTransport_Publish_Call {
	_c.Call.Return(_a0)
	return _c
}

// NewMockTransport creates a new instance of MockTransport. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTransport(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTransport {
	m := &MockTransport{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
