package service

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/carttrack/internal/lookup"
	"github.com/mmynk/carttrack/internal/sessions"
)

// CartServiceName is the fully-qualified name of the cart service.
const CartServiceName = "carttrack.v1.CartService"

// Procedure paths, one per RPC.
const (
	GetCartProcedure          = "/" + CartServiceName + "/GetCart"
	AddItemProcedure          = "/" + CartServiceName + "/AddItem"
	AddItemFromInputProcedure = "/" + CartServiceName + "/AddItemFromInput"
	RemoveItemProcedure       = "/" + CartServiceName + "/RemoveItem"
	SetLocationProcedure      = "/" + CartServiceName + "/SetLocation"
	StartSessionProcedure     = "/" + CartServiceName + "/StartSession"
	CommitSessionProcedure    = "/" + CartServiceName + "/CommitSession"
	ListSessionsProcedure     = "/" + CartServiceName + "/ListSessions"
	DeleteSessionProcedure    = "/" + CartServiceName + "/DeleteSession"
	GetSummaryProcedure       = "/" + CartServiceName + "/GetSummary"
	LookupBarcodeProcedure    = "/" + CartServiceName + "/LookupBarcode"
)

// ProductLookup resolves barcodes. Implemented by lookup.Client.
type ProductLookup interface {
	Lookup(ctx context.Context, code string) (lookup.Product, bool)
}

// CartService implements the Connect CartService
type CartService struct {
	tracker  *sessions.Tracker
	products ProductLookup
}

// NewCartService creates a new CartService.
func NewCartService(tracker *sessions.Tracker, products ProductLookup) *CartService {
	return &CartService{tracker: tracker, products: products}
}

// NewCartServiceHandler builds the HTTP handler serving every CartService
// procedure. It returns the path prefix to mount it on.
func NewCartServiceHandler(svc *CartService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetCartProcedure, connect.NewUnaryHandler(GetCartProcedure, svc.GetCart, opts...))
	mux.Handle(AddItemProcedure, connect.NewUnaryHandler(AddItemProcedure, svc.AddItem, opts...))
	mux.Handle(AddItemFromInputProcedure, connect.NewUnaryHandler(AddItemFromInputProcedure, svc.AddItemFromInput, opts...))
	mux.Handle(RemoveItemProcedure, connect.NewUnaryHandler(RemoveItemProcedure, svc.RemoveItem, opts...))
	mux.Handle(SetLocationProcedure, connect.NewUnaryHandler(SetLocationProcedure, svc.SetLocation, opts...))
	mux.Handle(StartSessionProcedure, connect.NewUnaryHandler(StartSessionProcedure, svc.StartSession, opts...))
	mux.Handle(CommitSessionProcedure, connect.NewUnaryHandler(CommitSessionProcedure, svc.CommitSession, opts...))
	mux.Handle(ListSessionsProcedure, connect.NewUnaryHandler(ListSessionsProcedure, svc.ListSessions, opts...))
	mux.Handle(DeleteSessionProcedure, connect.NewUnaryHandler(DeleteSessionProcedure, svc.DeleteSession, opts...))
	mux.Handle(GetSummaryProcedure, connect.NewUnaryHandler(GetSummaryProcedure, svc.GetSummary, opts...))
	mux.Handle(LookupBarcodeProcedure, connect.NewUnaryHandler(LookupBarcodeProcedure, svc.LookupBarcode, opts...))

	return "/" + CartServiceName + "/", mux
}

// GetCart returns the current session or a committed one.
func (s *CartService) GetCart(ctx context.Context, req *connect.Request[GetCartRequest]) (*connect.Response[CartResponse], error) {
	cart, err := s.tracker.Load(ctx, req.Msg.SessionID)
	if err != nil {
		return nil, toConnectError("GetCart", err)
	}
	return connect.NewResponse(&CartResponse{Cart: toCart(cart)}), nil
}

// AddItem adds a validated item to the targeted session.
func (s *CartService) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[CartResponse], error) {
	cart, err := s.tracker.AddItem(ctx, req.Msg.SessionID, sessions.NewItem{
		Name:     req.Msg.Name,
		Price:    req.Msg.Price,
		Quantity: req.Msg.Quantity,
	})
	if err != nil {
		return nil, toConnectError("AddItem", err)
	}
	return connect.NewResponse(&CartResponse{Cart: toCart(cart)}), nil
}

// AddItemFromInput parses raw form text and adds the item.
func (s *CartService) AddItemFromInput(ctx context.Context, req *connect.Request[AddItemFromInputRequest]) (*connect.Response[CartResponse], error) {
	item, err := sessions.ParseItemInput(req.Msg.Name, req.Msg.Price, req.Msg.Quantity)
	if err != nil {
		return nil, toConnectError("AddItemFromInput", err)
	}
	cart, err := s.tracker.AddItem(ctx, req.Msg.SessionID, item)
	if err != nil {
		return nil, toConnectError("AddItemFromInput", err)
	}
	return connect.NewResponse(&CartResponse{Cart: toCart(cart)}), nil
}

// RemoveItem removes an item from the targeted session.
func (s *CartService) RemoveItem(ctx context.Context, req *connect.Request[RemoveItemRequest]) (*connect.Response[CartResponse], error) {
	cart, err := s.tracker.RemoveItem(ctx, req.Msg.SessionID, req.Msg.ItemID)
	if err != nil {
		return nil, toConnectError("RemoveItem", err)
	}
	return connect.NewResponse(&CartResponse{Cart: toCart(cart)}), nil
}

// SetLocation sets the store name of the targeted session.
func (s *CartService) SetLocation(ctx context.Context, req *connect.Request[SetLocationRequest]) (*connect.Response[CartResponse], error) {
	cart, err := s.tracker.SetLocation(ctx, req.Msg.SessionID, req.Msg.Location)
	if err != nil {
		return nil, toConnectError("SetLocation", err)
	}
	return connect.NewResponse(&CartResponse{Cart: toCart(cart)}), nil
}

// StartSession commits the current session and starts a new one.
func (s *CartService) StartSession(ctx context.Context, req *connect.Request[StartSessionRequest]) (*connect.Response[CartResponse], error) {
	cart, err := s.tracker.StartSession(ctx, req.Msg.Location)
	if err != nil {
		return nil, toConnectError("StartSession", err)
	}
	return connect.NewResponse(&CartResponse{Cart: toCart(cart)}), nil
}

// CommitSession moves the current session into history.
func (s *CartService) CommitSession(ctx context.Context, req *connect.Request[CommitSessionRequest]) (*connect.Response[CommitSessionResponse], error) {
	cart, err := s.tracker.Commit(ctx)
	if err != nil {
		return nil, toConnectError("CommitSession", err)
	}
	resp := &CommitSessionResponse{}
	if cart != nil {
		view := toCart(cart)
		resp.Committed = true
		resp.Cart = &view
	}
	return connect.NewResponse(resp), nil
}

// ListSessions returns the session history.
func (s *CartService) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	carts, err := s.tracker.History(ctx)
	if err != nil {
		return nil, toConnectError("ListSessions", err)
	}

	views := make([]Cart, len(carts))
	for i := range carts {
		views[i] = toCart(&carts[i])
	}
	return connect.NewResponse(&ListSessionsResponse{Sessions: views}), nil
}

// DeleteSession removes a committed session.
func (s *CartService) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	if err := s.tracker.DeleteSession(ctx, req.Msg.SessionID); err != nil {
		return nil, toConnectError("DeleteSession", err)
	}
	return connect.NewResponse(&DeleteSessionResponse{}), nil
}

// GetSummary aggregates totals over the session history.
func (s *CartService) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	summary, err := s.tracker.Summary(ctx)
	if err != nil {
		return nil, toConnectError("GetSummary", err)
	}
	return connect.NewResponse(&GetSummaryResponse{
		Sessions:   summary.Sessions,
		Items:      summary.Items,
		GrandTotal: summary.GrandTotal.StringFixed(2),
	}), nil
}

// LookupBarcode returns a product name to prefill the item form.
// A miss is a normal response with Found set to false.
func (s *CartService) LookupBarcode(ctx context.Context, req *connect.Request[LookupBarcodeRequest]) (*connect.Response[LookupBarcodeResponse], error) {
	product, ok := s.products.Lookup(ctx, req.Msg.Barcode)
	if !ok {
		return connect.NewResponse(&LookupBarcodeResponse{}), nil
	}
	return connect.NewResponse(&LookupBarcodeResponse{Found: true, Name: product.Name}), nil
}

// toConnectError maps session errors to Connect codes and logs them.
func toConnectError(op string, err error) error {
	var verr *sessions.ValidationError
	switch {
	case errors.As(err, &verr):
		slog.Warn(op+" rejected", "field", verr.Field, "reason", verr.Reason)
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, sessions.ErrSessionNotFound), errors.Is(err, sessions.ErrNoCurrentSession):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, sessions.ErrStaleCollection):
		slog.Warn(op+" lost a concurrent write", "error", err)
		return connect.NewError(connect.CodeAborted, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}
}
