package shorten

import (
	"context"
	"net/url"
)

// Balance is the account summary returned by the service for an API key.
type Balance struct {
	Username  string        `json:"username"`
	Currency  string        `json:"currency"`
	Today     PeriodStats   `json:"today"`
	ThisMonth PeriodStats   `json:"this_month"`
	Balances  BalanceSheets `json:"balances"`
}

// PeriodStats holds view and earning counters for one reporting period.
type PeriodStats struct {
	Views    int64  `json:"views"`
	Earnings string `json:"earnings"`
}

// BalanceSheets breaks the account balance down by source.
type BalanceSheets struct {
	PublisherEarnings string `json:"publisher_earnings"`
	ReferralEarnings  string `json:"referral_earnings"`
	AdvertiserBalance string `json:"advertiser_balance"`
	WalletMoney       string `json:"wallet_money"`
}

// Balance fetches the account summary for the given API key.
func (c *Client) Balance(ctx context.Context, apiKey string) (*Balance, error) {
	query := url.Values{}
	query.Set("api", apiKey)

	endpoint := c.baseURL + "/api/user/balance?" + query.Encode()

	var balance Balance
	if err := c.getJSON(ctx, endpoint, &balance); err != nil {
		return nil, err
	}

	if balance.Username == "" {
		return nil, &RemoteError{Cause: CauseMalformed, Message: "response has no username"}
	}

	return &balance, nil
}
