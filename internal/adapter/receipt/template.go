package receipt

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/marketplace/internal/domain/model"
)

var receiptTemplate = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 MST") },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt for order #{{.OrderID}}</title>
<style>
body { font-family: sans-serif; font-size: 12px; margin: 24px; }
table { width: 100%; border-collapse: collapse; }
th, td { padding: 4px 8px; border-bottom: 1px solid #ddd; text-align: left; }
td.num, th.num { text-align: right; }
</style>
</head>
<body>
<h1>Receipt</h1>
<p>Order #{{.OrderID}} paid {{date .PaidAt}} via {{.ProviderName}}</p>
<p>Payment reference {{.ProviderPaymentID}}</p>
<h2>Ship to</h2>
<p>{{.Customer.FullName}}<br>{{.Customer.PhoneNumber}}<br>{{.Customer.Country}} {{.Customer.PostalCode}}</p>
<table>
<thead><tr><th>Product</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Subtotal</th></tr></thead>
<tbody>
{{- range .Lines}}
<tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{money .Price}}</td><td class="num">{{money .Subtotal}}</td></tr>
{{- end}}
</tbody>
<tfoot><tr><th colspan="3">Total</th><th class="num">{{money .Total}} {{.Currency}}</th></tr></tfoot>
</table>
</body>
</html>
`))

// RenderHTML produces the printable receipt page.
func RenderHTML(r model.Receipt) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("execute receipt template: %w", err)
	}
	return buf.String(), nil
}
