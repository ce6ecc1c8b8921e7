package receipt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polkiloo/marketplace/internal/domain/model"
	"github.com/polkiloo/marketplace/internal/usecase"
)

const pdfContentType = "application/pdf"

// Renderer prints receipts to PDF and publishes them to object storage.
type Renderer struct {
	converter PDFConverter
	store     ObjectStore
	linkTTL   time.Duration
	logger    *slog.Logger
}

// NewRenderer constructs Renderer.
func NewRenderer(converter PDFConverter, store ObjectStore, linkTTL time.Duration, logger *slog.Logger) *Renderer {
	return &Renderer{converter: converter, store: store, linkTTL: linkTTL, logger: logger}
}

// Key returns the object key of the receipt document.
func Key(r model.Receipt) string {
	return fmt.Sprintf("receipts/%d/%d.pdf", r.OrderID, r.PaymentID)
}

// Render stores the receipt document and returns a temporary link to it.
func (r *Renderer) Render(ctx context.Context, receipt model.Receipt) (string, error) {
	html, err := RenderHTML(receipt)
	if err != nil {
		return "", err
	}
	pdf, err := r.converter.Convert(ctx, html)
	if err != nil {
		return "", err
	}

	key := Key(receipt)
	if err := r.store.Put(ctx, key, pdf, pdfContentType); err != nil {
		return "", err
	}
	url, err := r.store.PresignGet(ctx, key, r.linkTTL)
	if err != nil {
		return "", err
	}

	r.logger.Debug("receipt stored", slog.Int64("order_id", receipt.OrderID), slog.String("key", key), slog.Int("bytes", len(pdf)))
	return url, nil
}

var _ usecase.ReceiptRenderer = (*Renderer)(nil)
