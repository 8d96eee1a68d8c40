package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aristath/factorlens/internal/clients/upstream"
)

// SparkMeta is the instrument metadata attached to a spark row.
type SparkMeta struct {
	Symbol           string `json:"symbol"`
	ExchangeName     string `json:"exchangeName"`
	FullExchangeName string `json:"fullExchangeName"`
	Market           string `json:"market"`
	InstrumentType   string `json:"instrumentType"`
}

type sparkResponse struct {
	Spark struct {
		Result []struct {
			Symbol   string `json:"symbol"`
			Response []struct {
				Meta SparkMeta `json:"meta"`
			} `json:"response"`
		} `json:"result"`
	} `json:"spark"`
}

// Spark fetches metadata for a batch of tickers. Tickers Yahoo does not
// return are listed in missing as "T: missing spark row".
func (c *Client) Spark(ctx context.Context, tickers []string) (map[string]SparkMeta, []string, error) {
	out := make(map[string]SparkMeta)
	if len(tickers) == 0 {
		return out, nil, nil
	}

	q := url.Values{}
	q.Set("symbols", strings.Join(tickers, ","))
	q.Set("range", "5d")
	q.Set("interval", "1d")
	endpoint := fmt.Sprintf("%s/v7/finance/spark?%s", c.baseURL, q.Encode())

	var resp sparkResponse
	if err := c.http.GetJSON(ctx, Provider, endpoint, nil, &resp); err != nil {
		var se *upstream.StatusError
		if errors.As(err, &se) {
			return nil, nil, fmt.Errorf("spark HTTP %d", se.StatusCode)
		}
		return nil, nil, err
	}

	for _, row := range resp.Spark.Result {
		symbol := strings.ToUpper(row.Symbol)
		if symbol == "" {
			continue
		}
		var meta SparkMeta
		if len(row.Response) > 0 {
			meta = row.Response[0].Meta
		}
		meta.Symbol = symbol
		out[symbol] = meta
	}

	var missing []string
	for _, t := range tickers {
		if _, ok := out[t]; !ok {
			missing = append(missing, t+": missing spark row")
		}
	}
	return out, missing, nil
}
