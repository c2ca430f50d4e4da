package order

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/YelzhanWeb/orderbridge/internal/adapter/logger"
	"github.com/YelzhanWeb/orderbridge/internal/domain"
	"github.com/YelzhanWeb/orderbridge/internal/interfaces"
)

type fakeRepo struct {
	orders    map[string]*domain.Order
	history   map[int][]*domain.StatusLog
	createErr error
	updateErr error
	updates   []string
	nextID    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[string]*domain.Order{}, history: map[int][]*domain.StatusLog{}}
}

func (r *fakeRepo) Create(_ context.Context, o *domain.Order) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	o.ID = r.nextID
	r.orders[o.Number] = o
	return nil
}

func (r *fakeRepo) FindByNumber(_ context.Context, number string) (*domain.Order, error) {
	if o, ok := r.orders[number]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeRepo) FindByID(_ context.Context, id int) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (r *fakeRepo) List(_ context.Context, status *domain.Status) ([]*domain.Order, error) {
	out := []*domain.Order{}
	for _, o := range r.orders {
		if status == nil || o.Status == *status {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int, status domain.Status, changedBy string) (bool, error) {
	if r.updateErr != nil {
		return false, r.updateErr
	}
	for _, o := range r.orders {
		if o.ID == id {
			o.Status = status
			r.updates = append(r.updates, changedBy)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRepo) UpdateStatusByNumber(context.Context, string, domain.Status, string) (bool, error) {
	return false, errors.New("not used")
}

func (r *fakeRepo) GetStatusHistory(_ context.Context, orderID int) ([]*domain.StatusLog, error) {
	return r.history[orderID], nil
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []interfaces.StatusUpdateMessage
	err  error
}

func (p *fakePublisher) PublishStatusUpdate(_ context.Context, msg interfaces.StatusUpdateMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fakeDispatcher struct {
	submitted []domain.Order
	err       error
}

func (d *fakeDispatcher) Submit(o domain.Order) error {
	d.submitted = append(d.submitted, o)
	return d.err
}

func validCommand() interfaces.CreateOrderCommand {
	note := "leave at door"
	return interfaces.CreateOrderCommand{
		CustomerName:    "Alice",
		PhoneNumber:     "+1 555 0100",
		DeliveryAddress: "1 Main St",
		Location:        domain.Location{Lat: 1, Lng: 2},
		Notes:           &note,
		TotalAmount:     12,
		Items:           []interfaces.CreateOrderItemCommand{{Name: "Latte", Quantity: 2, Price: 6}},
	}
}

func TestCreateOrder_PersistsThenDispatches(t *testing.T) {
	repo := newFakeRepo()
	disp := &fakeDispatcher{}
	svc := NewService(repo, nil, disp, logger.Nop())
	svc.newNumber = func() string { return "fixed-number" }

	order, err := svc.CreateOrder(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if order.Number != "fixed-number" || order.Status != domain.StatusPending || order.ID == 0 {
		t.Errorf("order = %+v", order)
	}
	if _, ok := repo.orders["fixed-number"]; !ok {
		t.Error("order not persisted")
	}
	if len(disp.submitted) != 1 || disp.submitted[0].Number != "fixed-number" {
		t.Errorf("submitted = %+v", disp.submitted)
	}
}

func TestCreateOrder_GeneratesUUIDNumbers(t *testing.T) {
	svc := NewService(newFakeRepo(), nil, nil, logger.Nop())

	a, err := svc.CreateOrder(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	b, err := svc.CreateOrder(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if len(a.Number) != 36 || a.Number == b.Number {
		t.Errorf("numbers %q, %q", a.Number, b.Number)
	}
}

func TestCreateOrder_DispatchFailureIsNotSurfaced(t *testing.T) {
	disp := &fakeDispatcher{err: errors.New("dispatch channel closed")}
	svc := NewService(newFakeRepo(), nil, disp, logger.Nop())

	if _, err := svc.CreateOrder(context.Background(), validCommand()); err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	repo := newFakeRepo()
	disp := &fakeDispatcher{}
	svc := NewService(repo, nil, disp, logger.Nop())

	cmd := validCommand()
	cmd.Items = nil

	_, err := svc.CreateOrder(context.Background(), cmd)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if len(repo.orders) != 0 || len(disp.submitted) != 0 {
		t.Error("invalid order must not be stored or dispatched")
	}
}

func TestCreateOrder_StoreFailureSkipsDispatch(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = errors.New("db down")
	disp := &fakeDispatcher{}
	svc := NewService(repo, nil, disp, logger.Nop())

	if _, err := svc.CreateOrder(context.Background(), validCommand()); err == nil {
		t.Fatal("expected error")
	}
	if len(disp.submitted) != 0 {
		t.Error("order dispatched without being stored")
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub, nil, logger.Nop())
	svc.newNumber = func() string { return "n-1" }

	order, err := svc.CreateOrder(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}

	if err := svc.UpdateOrderStatus(context.Background(), order.ID, domain.StatusDelivering); err != nil {
		t.Fatalf("UpdateOrderStatus: %v", err)
	}
	if repo.orders["n-1"].Status != domain.StatusDelivering {
		t.Errorf("status = %q", repo.orders["n-1"].Status)
	}
	if len(repo.updates) != 1 || repo.updates[0] != domain.ChangedByAdmin {
		t.Errorf("updates = %v", repo.updates)
	}

	if len(pub.msgs) != 1 {
		t.Fatalf("published = %d, want 1", len(pub.msgs))
	}
	msg := pub.msgs[0]
	if msg.OrderNumber != "n-1" || msg.OldStatus != domain.StatusPending || msg.NewStatus != domain.StatusDelivering || msg.ChangedBy != domain.ChangedByAdmin {
		t.Errorf("message = %+v", msg)
	}
}

func TestUpdateOrderStatus_Errors(t *testing.T) {
	repo := newFakeRepo()
	pub := &fakePublisher{}
	svc := NewService(repo, pub, nil, logger.Nop())

	tests := []struct {
		name   string
		id     int
		status domain.Status
		want   error
	}{
		{"unknown order", 404, domain.StatusCompleted, domain.ErrOrderNotFound},
		{"invalid status", 1, domain.Status("burnt"), domain.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpdateOrderStatus(context.Background(), tt.id, tt.status)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if len(pub.msgs) != 0 {
		t.Errorf("published %d messages for failed updates", len(pub.msgs))
	}
}

func TestUpdateOrderStatus_PublishFailureIsNotSurfaced(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakePublisher{err: errors.New("broker down")}, nil, logger.Nop())

	order, err := svc.CreateOrder(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	if err := svc.UpdateOrderStatus(context.Background(), order.ID, domain.StatusCancelled); err != nil {
		t.Errorf("UpdateOrderStatus: %v", err)
	}
}

func TestGetOrderHistory(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, nil, nil, logger.Nop())
	svc.newNumber = func() string { return "h-1" }

	order, err := svc.CreateOrder(context.Background(), validCommand())
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	repo.history[order.ID] = []*domain.StatusLog{
		{OrderID: order.ID, Status: domain.StatusPending, ChangedBy: domain.ChangedByOrderService},
		{OrderID: order.ID, Status: domain.StatusPreparing, ChangedBy: domain.ChangedByDevice},
	}

	logs, err := svc.GetOrderHistory(context.Background(), "h-1")
	if err != nil {
		t.Fatalf("GetOrderHistory: %v", err)
	}
	if len(logs) != 2 || logs[1].ChangedBy != domain.ChangedByDevice {
		t.Errorf("history = %+v", logs)
	}

	if _, err := svc.GetOrderHistory(context.Background(), "missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("err = %v, want ErrOrderNotFound", err)
	}
}
