package outcome

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
)

// recorder collects collaborator calls in order.
type recorder struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	block map[string]bool
}

func newRecorder() *recorder {
	return &recorder{fail: map[string]error{}, block: map[string]bool{}}
}

func (r *recorder) record(ctx context.Context, call string) error {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	err := r.fail[call]
	block := r.block[call]
	r.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

type fakeOrders struct {
	rec     *recorder
	parties domain.OrderParties
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus, paymentID string) error {
	return f.rec.record(ctx, "order.update:"+string(status))
}

func (f *fakeOrders) Parties(ctx context.Context, orderID string) (domain.OrderParties, error) {
	if err := f.rec.record(ctx, "order.parties"); err != nil {
		return domain.OrderParties{}, err
	}
	return f.parties, nil
}

type fakeLocations struct{ rec *recorder }

func (f *fakeLocations) ReleaseMeetingPoint(ctx context.Context, orderID string) error {
	return f.rec.record(ctx, "location.release")
}

type fakeNotifier struct{ rec *recorder }

func (f *fakeNotifier) Notify(ctx context.Context, n domain.Notification) error {
	return f.rec.record(ctx, "notify:"+string(n.Kind)+":"+n.UserID)
}

type fakeReputation struct{ rec *recorder }

func (f *fakeReputation) IncrementTrust(ctx context.Context, userID, orderID string, delta int) error {
	return f.rec.record(ctx, "reputation:"+userID)
}

type fakeTokens struct{ rec *recorder }

func (f *fakeTokens) IssueHandoffTokens(ctx context.Context, orderID string) (domain.HandoffTokens, error) {
	if err := f.rec.record(ctx, "tokens.issue"); err != nil {
		return domain.HandoffTokens{}, err
	}
	return domain.HandoffTokens{OrderID: orderID, HandoffCode: "h", ReturnCode: "r"}, nil
}

type fakeRefunds struct{ rec *recorder }

func (f *fakeRefunds) Initiate(ctx context.Context, paymentID, orderID string, amount decimal.Decimal) error {
	return f.rec.record(ctx, "refund.initiate")
}

type fakeInventory struct{ rec *recorder }

func (f *fakeInventory) Release(ctx context.Context, itemID string) error {
	return f.rec.record(ctx, "inventory.release:"+itemID)
}
