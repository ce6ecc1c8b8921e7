package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

const defaultPrintTimeout = 30 * time.Second

// PDFConverter prints an HTML document to PDF.
type PDFConverter interface {
	Convert(ctx context.Context, html string) ([]byte, error)
}

// ChromeConverter prints documents with a headless Chrome instance.
type ChromeConverter struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *slog.Logger
}

// NewChromeConverter attaches to a remote browser when remoteURL is set and
// launches a local headless one otherwise. No browser starts until the first
// conversion.
func NewChromeConverter(remoteURL string, logger *slog.Logger) *ChromeConverter {
	c := &ChromeConverter{timeout: defaultPrintTimeout, logger: logger}
	if remoteURL != "" {
		c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), remoteURL)
		return c
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-sandbox", true),
	)
	c.allocCtx, c.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return c
}

// Convert loads html into a blank tab and prints it.
func (c *ChromeConverter) Convert(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx)
	defer tabCancel()

	// The tab context does not inherit ctx, so propagate cancellation.
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	var pdf []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("print receipt: %w", errors.Join(ctxErr, err))
		}
		c.logger.Error("chrome print failed", slog.Any("error", err))
		return nil, fmt.Errorf("print receipt: %w", err)
	}
	if len(pdf) == 0 {
		return nil, errors.New("print receipt: empty document")
	}
	return pdf, nil
}

// Close shuts the browser allocator down.
func (c *ChromeConverter) Close() {
	if c.allocCancel != nil {
		c.allocCancel()
	}
}
