// Package posclient wraps the POS vendor's reporting HTTP endpoints: HTTP
// Basic auth with the store's API key as username, one retry after a
// fixed pause on transient failure, and endpoint-scoped timeouts.
package posclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/brightleaf/glsync/internal/clock"
	"github.com/brightleaf/glsync/internal/gl/domain"
	"github.com/brightleaf/glsync/internal/glerr"
	"github.com/brightleaf/glsync/internal/timeresolver"
)

const (
	transactionsTimeout = 180 * time.Second
	defaultTimeout      = 60 * time.Second
	retryPause          = 2 * time.Second
)

// Client talks to one POS vendor's reporting API.
type Client struct {
	baseURL             string
	transactionsHTTP    *http.Client
	defaultHTTP         *http.Client
	clock               clock.Clock
}

// New builds a Client against baseURL, with the 180s/60s timeout split the
// spec requires for the transactions endpoint versus everything else.
func New(baseURL string, c clock.Clock) *Client {
	return &Client{
		baseURL: baseURL,
		transactionsHTTP: &http.Client{Timeout: transactionsTimeout},
		defaultHTTP:      &http.Client{Timeout: defaultTimeout},
		clock:            c,
	}
}

// wireTransaction mirrors the POS JSON schema; amounts arrive as strings
// to avoid floating-point precision loss in transit.
type wireTransaction struct {
	TransactionID            string      `json:"transactionId"`
	TransactionType          string      `json:"transactionType"`
	TransactionDate          time.Time   `json:"transactionDate"`
	TransactionDateLocalTime string      `json:"transactionDateLocalTime"`
	IsVoid                   bool        `json:"isVoid"`
	IsReturn                 bool        `json:"isReturn"`
	Subtotal                 string      `json:"subtotal"`
	TotalDiscount            string      `json:"totalDiscount"`
	Tax                      string      `json:"tax"`
	Total                    string      `json:"total"`
	Paid                     string      `json:"paid"`
	CashPaid                 string      `json:"cashPaid"`
	DebitPaid                string      `json:"debitPaid"`
	ElectronicPaid           string      `json:"electronicPaid"`
	CreditPaid               string      `json:"creditPaid"`
	PrePaymentAmount         string      `json:"prePaymentAmount"`
	ChangeDue                string      `json:"changeDue"`
	LoyaltySpent             string      `json:"loyaltySpent"`
	Items                    []wireItem  `json:"items"`
	Discounts                []wireDisc  `json:"discounts"`
}

type wireItem struct {
	ProductID     string `json:"productId"`
	TotalPrice    string `json:"totalPrice"`
	TotalDiscount string `json:"totalDiscount"`
	UnitCost      string `json:"unitCost"`
	Quantity      string `json:"quantity"`
	IsReturned    bool   `json:"isReturned"`
	ReturnDate    string `json:"returnDate"`
}

type wireDisc struct {
	DiscountName   string `json:"discountName"`
	DiscountReason string `json:"discountReason"`
	Amount         string `json:"amount"`
}

// TransactionOptions controls optional query parameters on the
// transactions endpoint.
type TransactionOptions struct {
	IncludeDetail    bool
	IncludeTaxes     bool
	IncludeOrderIDs  bool
}

// GetTransactions fetches transactions for apiKey within [fromUTC, toUTC].
func (c *Client) GetTransactions(ctx context.Context, apiKey string, fromUTC, toUTC time.Time, opts TransactionOptions) ([]domain.Transaction, error) {
	q := url.Values{}
	q.Set("FromDateUTC", fromUTC.UTC().Format(time.RFC3339))
	q.Set("ToDateUTC", toUTC.UTC().Format(time.RFC3339))
	q.Set("IncludeDetail", boolString(opts.IncludeDetail))
	q.Set("IncludeTaxes", boolString(opts.IncludeTaxes))
	q.Set("IncludeOrderIds", boolString(opts.IncludeOrderIDs))

	var wire []wireTransaction
	if err := c.getJSON(ctx, c.transactionsHTTP, "/reporting/transactions", q, apiKey, &wire); err != nil {
		return nil, err
	}

	out := make([]domain.Transaction, 0, len(wire))
	for _, w := range wire {
		t, err := toDomainTransaction(w)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// GetInventoryReport fetches the full per-location inventory report.
func (c *Client) GetInventoryReport(ctx context.Context, apiKey string) ([]byte, error) {
	return c.getRaw(ctx, c.defaultHTTP, "/reporting/inventory", nil, apiKey)
}

// GetDiscountsV2 fetches the active discount catalog for a location.
func (c *Client) GetDiscountsV2(ctx context.Context, apiKey string) ([]byte, error) {
	q := url.Values{}
	q.Set("includeInactive", "false")
	q.Set("includeInclusionExclusionData", "true")
	return c.getRaw(ctx, c.defaultHTTP, "/discounts/v2/list", q, apiKey)
}

func (c *Client) getJSON(ctx context.Context, httpClient *http.Client, path string, q url.Values, apiKey string, out any) error {
	body, err := c.getRaw(ctx, httpClient, path, q, apiKey)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s: %v", glerr.ErrParse, path, err)
	}
	return nil
}

func (c *Client) getRaw(ctx context.Context, httpClient *http.Client, path string, q url.Values, apiKey string) ([]byte, error) {
	body, err := c.doOnce(ctx, httpClient, path, q, apiKey)
	if err == nil {
		return body, nil
	}
	if !isRetryable(err) {
		return nil, err
	}

	c.clock.Sleep(retryPause)
	body, err = c.doOnce(ctx, httpClient, path, q, apiKey)
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) doOnce(ctx context.Context, httpClient *http.Client, path string, q url.Values, apiKey string) ([]byte, error) {
	full := c.baseURL + path
	if len(q) > 0 {
		full += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", glerr.ErrNetworkPermanent, err)
	}
	req.SetBasicAuth(apiKey, "")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", glerr.ErrNetworkTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", glerr.ErrNetworkTransient, err)
	}

	switch {
	case resp.StatusCode >= 500, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: status %d", glerr.ErrNetworkTransient, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d", glerr.ErrNetworkPermanent, resp.StatusCode)
	}
	return body, nil
}

func isRetryable(err error) bool {
	return glerr.Retryable(err)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func parseAmount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func toDomainTransaction(w wireTransaction) (domain.Transaction, error) {
	items := make([]domain.Item, 0, len(w.Items))
	for _, wi := range w.Items {
		items = append(items, domain.Item{
			ProductID:     wi.ProductID,
			TotalPrice:    parseAmount(wi.TotalPrice),
			TotalDiscount: parseAmount(wi.TotalDiscount),
			UnitCost:      parseAmount(wi.UnitCost),
			Quantity:      parseAmount(wi.Quantity),
			IsReturned:    wi.IsReturned,
			ReturnDate:    wi.ReturnDate,
		})
	}

	discounts := make([]domain.DiscountLine, 0, len(w.Discounts))
	for _, wd := range w.Discounts {
		discounts = append(discounts, domain.DiscountLine{
			DiscountName:   wd.DiscountName,
			DiscountReason: wd.DiscountReason,
			Amount:         parseAmount(wd.Amount),
		})
	}

	return domain.Transaction{
		TransactionID:            w.TransactionID,
		TransactionType:          domain.TransactionType(w.TransactionType),
		TransactionDate:          w.TransactionDate,
		TransactionDateLocalTime: timeresolver.LocalDateTime(w.TransactionDateLocalTime),
		IsVoid:                   w.IsVoid,
		IsReturn:                 w.IsReturn,
		Subtotal:                 parseAmount(w.Subtotal),
		TotalDiscount:            parseAmount(w.TotalDiscount),
		Tax:                      parseAmount(w.Tax),
		Total:                    parseAmount(w.Total),
		Paid:                     parseAmount(w.Paid),
		CashPaid:                 parseAmount(w.CashPaid),
		DebitPaid:                parseAmount(w.DebitPaid),
		ElectronicPaid:           parseAmount(w.ElectronicPaid),
		CreditPaid:               parseAmount(w.CreditPaid),
		PrePaymentAmount:         parseAmount(w.PrePaymentAmount),
		ChangeDue:                parseAmount(w.ChangeDue),
		LoyaltySpent:             parseAmount(w.LoyaltySpent),
		Items:                    items,
		Discounts:                discounts,
	}, nil
}
