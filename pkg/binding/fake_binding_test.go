package binding

import "context"

// fakeBinding is a minimal in-memory Binding used to test Selector
// without any real transport. It never errors and supports every
// service id unless restricted via unsupportedAbove.
type fakeBinding struct {
	name     string
	priority int
	zeroCopy bool

	// unsupportedAbove, if non-zero, makes SupportsService false for any
	// serviceID greater than it -- used to test that Select skips a
	// binding that does not support the service.
	unsupportedAbove uint64
}

func (f *fakeBinding) Initialize(ctx context.Context) error { return nil }
func (f *fakeBinding) Shutdown(ctx context.Context) error   { return nil }

func (f *fakeBinding) OfferService(ctx context.Context, serviceID, instanceID uint64) error {
	return nil
}

func (f *fakeBinding) StopOfferService(ctx context.Context, serviceID, instanceID uint64) error {
	return nil
}

func (f *fakeBinding) Find(ctx context.Context, serviceID uint64) ([]uint64, error) {
	return nil, nil
}

func (f *fakeBinding) SendEvent(ctx context.Context, serviceID, instanceID uint64, eventID uint32, payload []byte) error {
	return nil
}

func (f *fakeBinding) Subscribe(ctx context.Context, serviceID, instanceID uint64, eventID uint32, handler EventHandler) error {
	return nil
}

func (f *fakeBinding) Unsubscribe(ctx context.Context, serviceID, instanceID uint64, eventID uint32) error {
	return nil
}

func (f *fakeBinding) Call(ctx context.Context, serviceID, instanceID uint64, methodID uint32, request []byte) ([]byte, error) {
	return nil, nil
}

func (f *fakeBinding) RegisterMethod(ctx context.Context, serviceID, instanceID uint64, methodID uint32, handler MethodHandler) error {
	return nil
}

func (f *fakeBinding) GetField(ctx context.Context, serviceID, instanceID uint64, fieldID uint32) ([]byte, error) {
	return nil, nil
}

func (f *fakeBinding) SetField(ctx context.Context, serviceID, instanceID uint64, fieldID uint32, value []byte) error {
	return nil
}

func (f *fakeBinding) Name() string           { return f.name }
func (f *fakeBinding) Priority() int          { return f.priority }
func (f *fakeBinding) SupportsZeroCopy() bool { return f.zeroCopy }

func (f *fakeBinding) SupportsService(serviceID uint64) bool {
	return f.unsupportedAbove == 0 || serviceID <= f.unsupportedAbove
}

func (f *fakeBinding) Metrics() map[string]int64 { return nil }

var _ Binding = (*fakeBinding)(nil)
