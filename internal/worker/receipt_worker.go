package worker

// receipt_worker.go
// Renders the PDF receipt for a committed order from QueueReceipt.

import (
	"context"
	"encoding/json"

	"tropicalstore/internal/infra"
	"tropicalstore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job envelope sent to QueueReceipt.
type ReceiptJobPayload struct {
	OrderID string `json:"order_id"`
}

type ReceiptWorker struct {
	orders         repository.OrderRepository
	pdfStoragePath string
}

func NewReceiptWorker(orders repository.OrderRepository, pdfStoragePath string) *ReceiptWorker {
	return &ReceiptWorker{orders: orders, pdfStoragePath: pdfStoragePath}
}

// Process renders one receipt. Malformed payloads are dropped; a missing
// order or a render failure returns the error so the pool can retry.
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		log.Error().Str("order_id", payload.OrderID).Msg("receipt_worker: invalid order_id")
		return nil
	}

	order, err := w.orders.FindByID(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", payload.OrderID).Msg("receipt_worker: order not found")
		return err
	}

	path, err := infra.GenerateReceiptPDF(order, w.pdfStoragePath)
	if err != nil {
		log.Error().Err(err).Str("order_id", payload.OrderID).Msg("receipt_worker: PDF generation failed")
		return err
	}
	log.Info().Str("order_id", payload.OrderID).Str("pdf", path).Msg("receipt_worker: receipt generated")
	return nil
}
