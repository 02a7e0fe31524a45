package service

import (
	"context"

	"connectrpc.com/connect"
)

// CartServiceClient is a typed client for the CartService.
type CartServiceClient struct {
	getCart          *connect.Client[GetCartRequest, CartResponse]
	addItem          *connect.Client[AddItemRequest, CartResponse]
	addItemFromInput *connect.Client[AddItemFromInputRequest, CartResponse]
	removeItem       *connect.Client[RemoveItemRequest, CartResponse]
	setLocation      *connect.Client[SetLocationRequest, CartResponse]
	startSession     *connect.Client[StartSessionRequest, CartResponse]
	commitSession    *connect.Client[CommitSessionRequest, CommitSessionResponse]
	listSessions     *connect.Client[ListSessionsRequest, ListSessionsResponse]
	deleteSession    *connect.Client[DeleteSessionRequest, DeleteSessionResponse]
	getSummary       *connect.Client[GetSummaryRequest, GetSummaryResponse]
	lookupBarcode    *connect.Client[LookupBarcodeRequest, LookupBarcodeResponse]
}

// NewCartServiceClient creates a client for the CartService served at baseURL.
func NewCartServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CartServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &CartServiceClient{
		getCart:          connect.NewClient[GetCartRequest, CartResponse](httpClient, baseURL+GetCartProcedure, opts...),
		addItem:          connect.NewClient[AddItemRequest, CartResponse](httpClient, baseURL+AddItemProcedure, opts...),
		addItemFromInput: connect.NewClient[AddItemFromInputRequest, CartResponse](httpClient, baseURL+AddItemFromInputProcedure, opts...),
		removeItem:       connect.NewClient[RemoveItemRequest, CartResponse](httpClient, baseURL+RemoveItemProcedure, opts...),
		setLocation:      connect.NewClient[SetLocationRequest, CartResponse](httpClient, baseURL+SetLocationProcedure, opts...),
		startSession:     connect.NewClient[StartSessionRequest, CartResponse](httpClient, baseURL+StartSessionProcedure, opts...),
		commitSession:    connect.NewClient[CommitSessionRequest, CommitSessionResponse](httpClient, baseURL+CommitSessionProcedure, opts...),
		listSessions:     connect.NewClient[ListSessionsRequest, ListSessionsResponse](httpClient, baseURL+ListSessionsProcedure, opts...),
		deleteSession:    connect.NewClient[DeleteSessionRequest, DeleteSessionResponse](httpClient, baseURL+DeleteSessionProcedure, opts...),
		getSummary:       connect.NewClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL+GetSummaryProcedure, opts...),
		lookupBarcode:    connect.NewClient[LookupBarcodeRequest, LookupBarcodeResponse](httpClient, baseURL+LookupBarcodeProcedure, opts...),
	}
}

func (c *CartServiceClient) GetCart(ctx context.Context, req *connect.Request[GetCartRequest]) (*connect.Response[CartResponse], error) {
	return c.getCart.CallUnary(ctx, req)
}

func (c *CartServiceClient) AddItem(ctx context.Context, req *connect.Request[AddItemRequest]) (*connect.Response[CartResponse], error) {
	return c.addItem.CallUnary(ctx, req)
}

func (c *CartServiceClient) AddItemFromInput(ctx context.Context, req *connect.Request[AddItemFromInputRequest]) (*connect.Response[CartResponse], error) {
	return c.addItemFromInput.CallUnary(ctx, req)
}

func (c *CartServiceClient) RemoveItem(ctx context.Context, req *connect.Request[RemoveItemRequest]) (*connect.Response[CartResponse], error) {
	return c.removeItem.CallUnary(ctx, req)
}

func (c *CartServiceClient) SetLocation(ctx context.Context, req *connect.Request[SetLocationRequest]) (*connect.Response[CartResponse], error) {
	return c.setLocation.CallUnary(ctx, req)
}

func (c *CartServiceClient) StartSession(ctx context.Context, req *connect.Request[StartSessionRequest]) (*connect.Response[CartResponse], error) {
	return c.startSession.CallUnary(ctx, req)
}

func (c *CartServiceClient) CommitSession(ctx context.Context, req *connect.Request[CommitSessionRequest]) (*connect.Response[CommitSessionResponse], error) {
	return c.commitSession.CallUnary(ctx, req)
}

func (c *CartServiceClient) ListSessions(ctx context.Context, req *connect.Request[ListSessionsRequest]) (*connect.Response[ListSessionsResponse], error) {
	return c.listSessions.CallUnary(ctx, req)
}

func (c *CartServiceClient) DeleteSession(ctx context.Context, req *connect.Request[DeleteSessionRequest]) (*connect.Response[DeleteSessionResponse], error) {
	return c.deleteSession.CallUnary(ctx, req)
}

func (c *CartServiceClient) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}

func (c *CartServiceClient) LookupBarcode(ctx context.Context, req *connect.Request[LookupBarcodeRequest]) (*connect.Response[LookupBarcodeResponse], error) {
	return c.lookupBarcode.CallUnary(ctx, req)
}
