// Package lume wraps the Lume exchange GraphQL API: queries and mutations
// over HTTP, and authenticated graphql-transport-ws subscriptions for
// real-time order and position updates.
package lume

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lumemarkets/lumebot/internal/domain"
)

// Client is a GraphQL client for the Lume exchange API.
type Client struct {
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a new Lume GraphQL client.
//
// apiURL is the GraphQL endpoint, e.g. "https://api.lume.markets/graphql".
func NewClient(apiURL string, logger *slog.Logger) *Client {
	return &Client{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: logger.With("component", "lume"),
	}
}

// FetchProxyWallet returns the proxy wallet address provisioned for an EOA.
func (c *Client) FetchProxyWallet(ctx context.Context, eoaAddress string) (string, error) {
	query := `
		query($address: String!) {
			user(address: $address) {
				proxyWalletAddress
			}
		}
	`
	respData, err := c.Query(ctx, query, map[string]any{"address": eoaAddress})
	if err != nil {
		return "", fmt.Errorf("lume: fetch proxy wallet: %w", err)
	}

	var result struct {
		User struct {
			ProxyWalletAddress string `json:"proxyWalletAddress"`
		} `json:"user"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return "", fmt.Errorf("lume: decode proxy wallet: %w: %s", domain.ErrTransport, err)
	}
	if result.User.ProxyWalletAddress == "" {
		return "", fmt.Errorf("lume: no proxy wallet for %s: %w", eoaAddress, domain.ErrNotFound)
	}

	return result.User.ProxyWalletAddress, nil
}

// GetMarket returns a market with its outcomes.
func (c *Client) GetMarket(ctx context.Context, marketID string) (domain.Market, error) {
	query := `
		query($id: ID!) {
			market(id: $id) {
				id
				slug
				question
				conditionId
				negRisk
				status
				outcomes {
					id
					label
					tokenId
				}
			}
		}
	`
	respData, err := c.Query(ctx, query, map[string]any{"id": marketID})
	if err != nil {
		return domain.Market{}, fmt.Errorf("lume: get market %s: %w", marketID, err)
	}

	var result struct {
		Market *wireMarket `json:"market"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return domain.Market{}, fmt.Errorf("lume: decode market: %w: %s", domain.ErrTransport, err)
	}
	if result.Market == nil {
		return domain.Market{}, fmt.Errorf("lume: market %s: %w", marketID, domain.ErrNotFound)
	}

	return result.Market.toDomain(), nil
}

// ListMarkets returns all markets with the given status.
func (c *Client) ListMarkets(ctx context.Context, status domain.MarketStatus) ([]domain.Market, error) {
	query := `
		query($status: MarketStatus!) {
			markets(status: $status) {
				id
				slug
				question
				conditionId
				negRisk
				status
				outcomes {
					id
					label
					tokenId
				}
			}
		}
	`
	respData, err := c.Query(ctx, query, map[string]any{"status": string(status)})
	if err != nil {
		return nil, fmt.Errorf("lume: list markets: %w", err)
	}

	var result struct {
		Markets []wireMarket `json:"markets"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("lume: decode markets: %w: %s", domain.ErrTransport, err)
	}

	markets := make([]domain.Market, 0, len(result.Markets))
	for _, m := range result.Markets {
		markets = append(markets, m.toDomain())
	}
	return markets, nil
}

// GetOrder returns one of the account's orders by id.
func (c *Client) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	query := `
		query($id: ID!) {
			order(id: $id) {
				id
				marketId
				outcomeId
				side
				status
				price
				shares
				filledShares
				eoaWallet
				createdAt
				updatedAt
			}
		}
	`
	respData, err := c.Query(ctx, query, map[string]any{"id": orderID})
	if err != nil {
		return domain.Order{}, fmt.Errorf("lume: get order %s: %w", orderID, err)
	}

	var result struct {
		Order *wireOrder `json:"order"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return domain.Order{}, fmt.Errorf("lume: decode order: %w: %s", domain.ErrTransport, err)
	}
	if result.Order == nil {
		return domain.Order{}, fmt.Errorf("lume: order %s: %w", orderID, domain.ErrNotFound)
	}

	return result.Order.toDomain()
}

// ListMyOrders returns the account's orders for a market, filtered to the
// given statuses. Used to reseed fill baselines before (re)subscribing.
func (c *Client) ListMyOrders(ctx context.Context, marketID string, statuses []domain.OrderStatus) ([]domain.Order, error) {
	query := `
		query($marketId: ID!, $statuses: [OrderStatus!]) {
			myOrders(marketId: $marketId, statuses: $statuses) {
				id
				marketId
				outcomeId
				side
				status
				price
				shares
				filledShares
				eoaWallet
				createdAt
				updatedAt
			}
		}
	`
	wireStatuses := make([]string, 0, len(statuses))
	for _, s := range statuses {
		wireStatuses = append(wireStatuses, string(s))
	}

	respData, err := c.Query(ctx, query, map[string]any{
		"marketId": marketID,
		"statuses": wireStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("lume: list my orders: %w", err)
	}

	var result struct {
		MyOrders []wireOrder `json:"myOrders"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return nil, fmt.Errorf("lume: decode my orders: %w: %s", domain.ErrTransport, err)
	}

	orders := make([]domain.Order, 0, len(result.MyOrders))
	for _, o := range result.MyOrders {
		order, err := o.toDomain()
		if err != nil {
			c.log.Warn("skipping order with malformed fields", "order_id", o.ID, "error", err)
			continue
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// GetOrderBook returns the current book for a market outcome.
func (c *Client) GetOrderBook(ctx context.Context, marketID, outcomeID string) (domain.OrderBook, error) {
	query := `
		query($marketId: ID!, $outcomeId: ID!) {
			orderBook(marketId: $marketId, outcomeId: $outcomeId) {
				outcome {
					id
					label
					tokenId
				}
				bids {
					price
					shares
				}
				asks {
					price
					shares
				}
			}
		}
	`
	respData, err := c.Query(ctx, query, map[string]any{
		"marketId":  marketID,
		"outcomeId": outcomeID,
	})
	if err != nil {
		return domain.OrderBook{}, fmt.Errorf("lume: get orderbook: %w", err)
	}

	var result struct {
		OrderBook *struct {
			Outcome wireOutcome     `json:"outcome"`
			Bids    []wireBookLevel `json:"bids"`
			Asks    []wireBookLevel `json:"asks"`
		} `json:"orderBook"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return domain.OrderBook{}, fmt.Errorf("lume: decode orderbook: %w: %s", domain.ErrTransport, err)
	}
	if result.OrderBook == nil {
		return domain.OrderBook{}, fmt.Errorf("lume: orderbook %s/%s: %w", marketID, outcomeID, domain.ErrNotFound)
	}

	book := domain.OrderBook{Outcome: result.OrderBook.Outcome.toDomain()}
	for _, b := range result.OrderBook.Bids {
		level, err := b.toDomain()
		if err != nil {
			return domain.OrderBook{}, fmt.Errorf("lume: orderbook bid: %w", err)
		}
		book.Bids = append(book.Bids, level)
	}
	for _, a := range result.OrderBook.Asks {
		level, err := a.toDomain()
		if err != nil {
			return domain.OrderBook{}, fmt.Errorf("lume: orderbook ask: %w", err)
		}
		book.Asks = append(book.Asks, level)
	}
	return book, nil
}

// PlaceOrder submits a signed order and returns the exchange order id.
// Placement is not idempotent: a transport error after the request left
// this process may mean the order was accepted anyway, so callers must not
// blindly retry with a fresh salt.
func (c *Client) PlaceOrder(ctx context.Context, input PlaceOrderInput) (string, error) {
	mutation := `
		mutation($input: PlaceOrderInput!) {
			placeOrder(input: $input) {
				id
			}
		}
	`
	variables := map[string]any{
		"input": map[string]any{
			"marketId":  input.MarketID,
			"outcomeId": input.OutcomeID,
			"side":      string(input.Side),
			"orderType": string(input.OrderType),
			"price":     domain.ToAtomicString(decimal.NewFromFloat(input.Price)),
			"shares":    domain.ToAtomicString(decimal.NewFromFloat(input.Shares)),
			"eoaWallet": input.EOAWallet,
			"orderData": input.OrderData,
		},
	}

	respData, err := c.Mutate(ctx, mutation, variables)
	if err != nil {
		return "", fmt.Errorf("lume: place order: %w", err)
	}

	var result struct {
		PlaceOrder struct {
			ID string `json:"id"`
		} `json:"placeOrder"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return "", fmt.Errorf("lume: decode place order: %w: %s", domain.ErrTransport, err)
	}
	if result.PlaceOrder.ID == "" {
		return "", fmt.Errorf("lume: place order returned no id: %w", domain.ErrTransport)
	}

	return result.PlaceOrder.ID, nil
}

// CancelOrder cancels an order by id and returns its new status.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	mutation := `
		mutation($input: CancelOrderInput!) {
			cancelOrder(input: $input) {
				id
				status
			}
		}
	`
	respData, err := c.Mutate(ctx, mutation, map[string]any{
		"input": map[string]any{"orderId": orderID},
	})
	if err != nil {
		return "", fmt.Errorf("lume: cancel order %s: %w", orderID, err)
	}

	var result struct {
		CancelOrder struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"cancelOrder"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return "", fmt.Errorf("lume: decode cancel order: %w: %s", domain.ErrTransport, err)
	}

	return domain.OrderStatus(result.CancelOrder.Status), nil
}

// RequestWalletAuthChallenge asks the server for a WebSocket auth challenge
// for the given wallet.
func (c *Client) RequestWalletAuthChallenge(ctx context.Context, walletAddress string) (WalletAuthChallenge, error) {
	mutation := `
		mutation($walletAddress: String!) {
			requestWalletAuthChallenge(walletAddress: $walletAddress) {
				nonce
				expiresAt
				domain {
					name
					version
					chainId
				}
			}
		}
	`
	respData, err := c.Mutate(ctx, mutation, map[string]any{"walletAddress": walletAddress})
	if err != nil {
		return WalletAuthChallenge{}, fmt.Errorf("lume: request auth challenge: %w", err)
	}

	var result struct {
		RequestWalletAuthChallenge struct {
			Nonce     string `json:"nonce"`
			ExpiresAt string `json:"expiresAt"`
			Domain    struct {
				Name    string `json:"name"`
				Version string `json:"version"`
				ChainID int    `json:"chainId"`
			} `json:"domain"`
		} `json:"requestWalletAuthChallenge"`
	}
	if err := json.Unmarshal(respData, &result); err != nil {
		return WalletAuthChallenge{}, fmt.Errorf("lume: decode auth challenge: %w: %s", domain.ErrTransport, err)
	}
	if result.RequestWalletAuthChallenge.Nonce == "" {
		return WalletAuthChallenge{}, fmt.Errorf("lume: empty auth challenge nonce: %w", domain.ErrTransport)
	}

	ch := WalletAuthChallenge{
		Nonce:     result.RequestWalletAuthChallenge.Nonce,
		ExpiresAt: result.RequestWalletAuthChallenge.ExpiresAt,
	}
	ch.Domain.Name = result.RequestWalletAuthChallenge.Domain.Name
	ch.Domain.Version = result.RequestWalletAuthChallenge.Domain.Version
	ch.Domain.ChainID = result.RequestWalletAuthChallenge.Domain.ChainID
	return ch, nil
}

// --------------------------------------------------------------------------
// Transport
// --------------------------------------------------------------------------

// Query executes a GraphQL query and returns the raw "data" field. All
// failure modes wrap domain.ErrTransport.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	reqBody := graphqlRequest{
		Query:     query,
		Variables: variables,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal graphql request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %s", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %s", domain.ErrTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", domain.ErrTransport, resp.StatusCode, string(body))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return nil, fmt.Errorf("%w: decode graphql response: %s", domain.ErrTransport, err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("%w: graphql error: %s", domain.ErrTransport, gqlResp.Errors[0].Message)
	}
	if gqlResp.Data == nil {
		return nil, fmt.Errorf("%w: no data in response", domain.ErrTransport)
	}

	return gqlResp.Data, nil
}

// Mutate executes a GraphQL mutation. The wire protocol is identical to a
// query.
func (c *Client) Mutate(ctx context.Context, mutation string, variables map[string]any) (json.RawMessage, error) {
	return c.Query(ctx, mutation, variables)
}
