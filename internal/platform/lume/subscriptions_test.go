package lume

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/lumemarkets/lumebot/internal/domain"
)

func newDecodeClient() *WSClient {
	return NewWSClient("wss://example.invalid/graphql", nil, nil, testLogger())
}

func TestDecodeOrderUpdate(t *testing.T) {
	w := newDecodeClient()

	payload := json.RawMessage(`{"data":{"myOrderUpdates":{
		"type":"UPDATE",
		"order":{
			"id":"ord-1","marketId":"mkt-1","outcomeId":"out-yes",
			"side":"BUY","status":"PARTIALLY_FILLED",
			"price":"480000","shares":"10000000","filledShares":"2500000",
			"eoaWallet":"0xabc",
			"createdAt":"2026-08-30T10:00:00Z","updatedAt":"2026-08-30T10:05:00Z"},
		"timestamp":"2026-08-30T10:05:00Z","sequence":"42"}}}`)

	upd, ok := w.decodeOrderUpdate(payload)
	if !ok {
		t.Fatal("well-formed payload was dropped")
	}
	if upd.Type != domain.UpdateTypeUpdate || upd.Sequence != "42" {
		t.Errorf("update = %+v", upd)
	}
	if upd.Order.FilledShares != "2500000" {
		t.Errorf("filledShares = %s", upd.Order.FilledShares)
	}
	want := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	if !upd.Order.CreatedAt.Equal(want) {
		t.Errorf("createdAt = %v, want %v", upd.Order.CreatedAt, want)
	}
}

func TestDecodeOrderUpdateDropsMalformed(t *testing.T) {
	w := newDecodeClient()

	cases := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"data":{`},
		{"missing order", `{"data":{"myOrderUpdates":{"type":"UPDATE","timestamp":"2026-08-30T10:00:00Z"}}}`},
		{"empty data", `{"data":{}}`},
		{"bad createdAt", `{"data":{"myOrderUpdates":{"type":"UPDATE","order":{"id":"ord-1","createdAt":"not-a-time"}}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, ok := w.decodeOrderUpdate(json.RawMessage(tc.payload)); ok {
				t.Error("malformed payload was not dropped")
			}
		})
	}
}

func TestDecodePositionUpdate(t *testing.T) {
	w := newDecodeClient()

	payload := json.RawMessage(`{"data":{"myPositionUpdates":{
		"type":"INSERT",
		"position":{
			"id":"pos-1","marketId":"mkt-1",
			"outcome":{"id":"out-yes","label":"YES","tokenId":"101"},
			"shares":"5000000","averagePrice":"440000"},
		"timestamp":"2026-08-30T10:05:00Z","sequence":"7"}}}`)

	upd, ok := w.decodePositionUpdate(payload)
	if !ok {
		t.Fatal("well-formed payload was dropped")
	}
	if upd.PositionID != "pos-1" || upd.Outcome.Label != "YES" {
		t.Errorf("update = %+v", upd)
	}
}
