package mailer

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
)

type DropAlert struct {
	Title       string
	ImageURL    string
	ProductURL  string
	OldPrice    decimal.Decimal
	NewPrice    decimal.Decimal
	TargetPrice decimal.Decimal
}

func (a DropAlert) Savings() decimal.Decimal {
	return a.OldPrice.Sub(a.NewPrice)
}

func (a DropAlert) SavingsPercent() string {
	if !a.OldPrice.IsPositive() {
		return "0"
	}
	return a.Savings().Div(a.OldPrice).Mul(decimal.NewFromInt(100)).Round(1).String()
}

func (a DropAlert) AtTarget() bool {
	return a.TargetPrice.IsPositive() && a.NewPrice.LessThanOrEqual(a.TargetPrice)
}

var dropAlertTmpl = template.Must(template.New("drop").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
<h2 style="color:#067D62">Price Drop Alert</h2>
{{if .ImageURL}}<img src="{{.ImageURL}}" alt="" style="max-width:200px"/>{{end}}
<h3><a href="{{.ProductURL}}">{{.Title}}</a></h3>
<p>
<span style="text-decoration:line-through;color:#888">${{.OldPrice}}</span>
<strong style="color:#B12704;font-size:1.3em">&nbsp;${{.NewPrice}}</strong>
</p>
<p>You save <strong>${{.Savings}}</strong> ({{.SavingsPercent}}%).</p>
{{if .AtTarget}}<p style="color:#067D62"><strong>This is at or below your target price of ${{.TargetPrice}}.</strong></p>{{end}}
<p><a href="{{.ProductURL}}" style="background:#FFD814;padding:10px 24px;border-radius:20px;color:#111;text-decoration:none">View on Amazon</a></p>
</div>`))

// PriceDropAlert renders the single-product drop notification.
func PriceDropAlert(to string, alert DropAlert) (Message, error) {
	var body strings.Builder
	if err := dropAlertTmpl.Execute(&body, alert); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Price Drop Alert: %s", truncate(alert.Title, 60)),
		HTML:    body.String(),
	}, nil
}

type SummaryItem struct {
	Title        string
	ProductURL   string
	CurrentPrice decimal.Decimal
	TargetPrice  decimal.Decimal
}

func (i SummaryItem) BelowTarget() bool {
	return i.TargetPrice.IsPositive() && i.CurrentPrice.IsPositive() && i.CurrentPrice.LessThanOrEqual(i.TargetPrice)
}

type summaryData struct {
	Items        []SummaryItem
	TotalSavings decimal.Decimal
}

var summaryTmpl = template.Must(template.New("summary").Parse(`<div style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto">
<h2 style="color:#067D62">Your Weekly Price Summary</h2>
<p>You are tracking {{len .Items}} product(s).</p>
<table style="width:100%;border-collapse:collapse">
<tr><th align="left" style="border-bottom:1px solid #ddd;padding:6px">Product</th><th align="right" style="border-bottom:1px solid #ddd;padding:6px">Current</th><th align="right" style="border-bottom:1px solid #ddd;padding:6px">Target</th></tr>
{{range .Items}}<tr>
<td style="padding:6px"><a href="{{.ProductURL}}">{{.Title}}</a>{{if .BelowTarget}} <span style="color:#067D62">&#10003; below target</span>{{end}}</td>
<td align="right" style="padding:6px">${{.CurrentPrice}}</td>
<td align="right" style="padding:6px">${{.TargetPrice}}</td>
</tr>{{end}}
</table>
{{if .TotalSavings.IsPositive}}<p>Products below target would save you <strong>${{.TotalSavings}}</strong> right now.</p>{{end}}
</div>`))

// WeeklySummary renders the digest of everything a user tracks.
func WeeklySummary(to string, items []SummaryItem) (Message, error) {
	data := summaryData{Items: items, TotalSavings: decimal.Zero}
	for _, item := range items {
		if item.BelowTarget() {
			data.TotalSavings = data.TotalSavings.Add(item.TargetPrice.Sub(item.CurrentPrice))
		}
	}

	var body strings.Builder
	if err := summaryTmpl.Execute(&body, data); err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Weekly Summary: %d tracked product(s)", len(items)),
		HTML:    body.String(),
	}, nil
}

// TestMessage verifies SMTP credentials end to end.
func TestMessage(to string) Message {
	return Message{
		To:      to,
		Subject: "AZTrackonomy test email",
		HTML:    "<p>Your email notifications are configured correctly.</p>",
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max]) + "..."
}
