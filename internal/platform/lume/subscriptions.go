package lume

import (
	"encoding/json"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
)

const myOrderUpdatesSubscription = `
	subscription MyOrderUpdates {
		myOrderUpdates {
			type
			order {
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
			timestamp
			sequence
		}
	}
`

const myPositionUpdatesSubscription = `
	subscription MyPositionUpdates {
		myPositionUpdates {
			type
			position {
				id
				marketId
				outcome {
					id
					label
					tokenId
				}
				shares
				averagePrice
			}
			timestamp
			sequence
		}
	}
`

// SubscribeOrderUpdates subscribes to the authenticated account's order
// updates and decodes them into domain events. Malformed payloads are
// logged and dropped; well-formed events are delivered in receipt order.
// The returned channel closes when the underlying subscription ends.
func (w *WSClient) SubscribeOrderUpdates() (<-chan domain.OrderUpdate, error) {
	raw, err := w.Subscribe(myOrderUpdatesSubscription, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.OrderUpdate, 64)
	go func() {
		defer close(out)
		for payload := range raw {
			upd, ok := w.decodeOrderUpdate(payload)
			if !ok {
				continue
			}
			select {
			case out <- upd:
			case <-w.done:
				return
			}
		}
	}()
	return out, nil
}

// SubscribePositionUpdates subscribes to the authenticated account's
// position updates.
func (w *WSClient) SubscribePositionUpdates() (<-chan domain.PositionUpdate, error) {
	raw, err := w.Subscribe(myPositionUpdatesSubscription, nil)
	if err != nil {
		return nil, err
	}

	out := make(chan domain.PositionUpdate, 64)
	go func() {
		defer close(out)
		for payload := range raw {
			upd, ok := w.decodePositionUpdate(payload)
			if !ok {
				continue
			}
			select {
			case out <- upd:
			case <-w.done:
				return
			}
		}
	}()
	return out, nil
}

func (w *WSClient) decodeOrderUpdate(payload json.RawMessage) (domain.OrderUpdate, bool) {
	var envelope struct {
		Data struct {
			MyOrderUpdates *wireOrderUpdate `json:"myOrderUpdates"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		w.log.Warn("dropping malformed order update", "error", err)
		return domain.OrderUpdate{}, false
	}
	wire := envelope.Data.MyOrderUpdates
	if wire == nil || wire.Order.ID == "" {
		w.log.Warn("dropping order update without order payload")
		return domain.OrderUpdate{}, false
	}

	order, err := wire.Order.toDomain()
	if err != nil {
		w.log.Warn("dropping order update with malformed order",
			"order_id", wire.Order.ID, "error", err)
		return domain.OrderUpdate{}, false
	}

	ts, err := parseTimestamp(wire.Timestamp)
	if err != nil {
		ts = time.Now()
	}

	return domain.OrderUpdate{
		Type:      domain.UpdateType(wire.Type),
		Order:     order,
		Timestamp: ts,
		Sequence:  wire.Sequence,
	}, true
}

func (w *WSClient) decodePositionUpdate(payload json.RawMessage) (domain.PositionUpdate, bool) {
	var envelope struct {
		Data struct {
			MyPositionUpdates *wirePositionUpdate `json:"myPositionUpdates"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		w.log.Warn("dropping malformed position update", "error", err)
		return domain.PositionUpdate{}, false
	}
	wire := envelope.Data.MyPositionUpdates
	if wire == nil || wire.Position.ID == "" {
		w.log.Warn("dropping position update without position payload")
		return domain.PositionUpdate{}, false
	}

	ts, err := parseTimestamp(wire.Timestamp)
	if err != nil {
		ts = time.Now()
	}

	return domain.PositionUpdate{
		Type:         domain.UpdateType(wire.Type),
		PositionID:   wire.Position.ID,
		MarketID:     wire.Position.MarketID,
		Outcome:      wire.Position.Outcome.toDomain(),
		Shares:       wire.Position.Shares,
		AveragePrice: wire.Position.AveragePrice,
		Timestamp:    ts,
		Sequence:     wire.Sequence,
	}, true
}
