package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
)

type State string

const (
	StateIdle            State = "idle"
	StateAwaitingPayment State = "awaiting_payment"
	StateSubmitting      State = "submitting"
	StateSuccess         State = "success"
)

const (
	MethodTransfer = "Transfer Bank"
	MethodCOD      = "COD"
	MethodEWallet  = "E-Wallet"
	MethodQRIS     = "QRIS"

	SuccessRedirect = "/dashboard/user"
)

var Methods = []string{MethodTransfer, MethodCOD, MethodEWallet, MethodQRIS}

var (
	ErrNoSession     = errors.New("no session")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrBusy          = errors.New("checkout already in progress")
	ErrUnknownMethod = errors.New("unknown payment method")
	ErrNotAwaiting   = errors.New("no payment awaiting confirmation")
)

type Cart interface {
	Lines() []models.CartLine
	Total() int64
	Clear(ctx context.Context) error
}

type Sessions interface {
	Load(ctx context.Context) (models.Session, error)
}

type Orders interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (map[string]any, error)
}

// QRSource returns the image shown for QRIS payments.
type QRSource func(ctx context.Context) string

type Confirmation struct {
	QRImage string `json:"qrImage"`
	Total   int64  `json:"total"`
}

type Result struct {
	State        State                `json:"state"`
	Method       string               `json:"method,omitempty"`
	Confirmation *Confirmation        `json:"confirmation,omitempty"`
	Redirect     string               `json:"redirect,omitempty"`
	Request      *models.OrderRequest `json:"-"`
	Order        map[string]any       `json:"order,omitempty"`
}

// Flow drives one checkout at a time for the local cart.
type Flow struct {
	cart     Cart
	sessions Sessions
	orders   Orders
	qr       QRSource

	mu      sync.Mutex
	state   State
	pending string
}

func NewFlow(cart Cart, sessions Sessions, orders Orders, qr QRSource) *Flow {
	return &Flow{cart: cart, sessions: sessions, orders: orders, qr: qr, state: StateIdle}
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Pay starts checkout with method. QRIS only opens the confirmation step;
// every other method submits the order.
func (f *Flow) Pay(ctx context.Context, method string) (Result, error) {
	if !slices.Contains(Methods, method) {
		return Result{}, fmt.Errorf("%q: %w", method, ErrUnknownMethod)
	}

	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return Result{}, ErrBusy
	}
	if method != MethodQRIS {
		f.state = StateSubmitting
		f.mu.Unlock()
		return f.submit(ctx, method)
	}
	f.state = StateAwaitingPayment
	f.pending = method
	f.mu.Unlock()

	conf := &Confirmation{Total: f.cart.Total()}
	if f.qr != nil {
		conf.QRImage = f.qr(ctx)
	}
	return Result{State: StateAwaitingPayment, Method: method, Confirmation: conf}, nil
}

// Confirm submits the order the user has already paid for by QRIS.
func (f *Flow) Confirm(ctx context.Context) (Result, error) {
	f.mu.Lock()
	switch f.state {
	case StateSubmitting:
		f.mu.Unlock()
		return Result{}, ErrBusy
	case StateAwaitingPayment:
	default:
		f.mu.Unlock()
		return Result{}, ErrNotAwaiting
	}
	method := f.pending
	f.state = StateSubmitting
	f.mu.Unlock()

	return f.submit(ctx, method)
}

// Cancel closes the confirmation step. It has no effect while submitting.
func (f *Flow) Cancel() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateAwaitingPayment {
		f.state = StateIdle
		f.pending = ""
	}
	return f.state
}

// submit runs with the state already set to submitting.
func (f *Flow) submit(ctx context.Context, method string) (res Result, err error) {
	l := logging.FromContext(ctx).With("component", "checkout", "method", method)

	defer func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.pending = ""
		if err != nil {
			f.state = StateIdle
			return
		}
		f.state = StateSuccess
	}()

	sess, err := f.sessions.Load(ctx)
	if err != nil {
		l.Info("checkout_without_session", "error", err)
		return Result{}, ErrNoSession
	}

	lines := f.cart.Lines()
	if len(lines) == 0 {
		return Result{}, ErrEmptyCart
	}

	req := models.OrderRequest{
		UserID:        sess.ID,
		PaymentMethod: method,
		Items:         make([]models.OrderItem, 0, len(lines)),
	}
	for _, line := range lines {
		req.Items = append(req.Items, models.OrderItem{ProductID: line.ID, Quantity: line.Quantity})
		req.TotalPrice += line.Subtotal()
	}

	order, err := f.orders.CreateOrder(ctx, req)
	if err != nil {
		l.Warn("order_rejected", "user_id", sess.ID, "error", err)
		return Result{Request: &req}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Result{}, ctxErr
	}

	if cErr := f.cart.Clear(ctx); cErr != nil {
		l.Error("cart_clear_after_order_failed", "error", cErr)
	}
	l.Info("order_created", "user_id", sess.ID, "total", req.TotalPrice, "items", len(req.Items))

	return Result{
		State:    StateSuccess,
		Method:   method,
		Redirect: SuccessRedirect,
		Request:  &req,
		Order:    order,
	}, nil
}
