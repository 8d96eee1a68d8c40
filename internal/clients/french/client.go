// Package french loads daily Fama-French five factor and momentum returns
// from the Ken French data library.
package french

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aristath/factorlens/internal/clientdata"
	"github.com/aristath/factorlens/internal/clients/upstream"
	"github.com/aristath/factorlens/internal/domain"
)

const (
	// Provider names the breaker and metrics label for the data library.
	Provider = "french"

	// DefaultBaseURL is the data library download directory.
	DefaultBaseURL = "https://mba.tuck.dartmouth.edu/pages/faculty/ken.french/ftp"

	// FiveFactorFile is the daily 2x3 five factor archive.
	FiveFactorFile = "F-F_Research_Data_5_Factors_2x3_daily_CSV.zip"

	// MomentumFile is the daily momentum archive.
	MomentumFile = "F-F_Momentum_Factor_daily_CSV.zip"

	// CacheKey is the factor_data row holding the merged set.
	CacheKey = "ff5_daily"

	// MaxRows keeps about ten trading years, well beyond the longest
	// price history requested.
	MaxRows = 2520
)

// Client downloads and parses the factor archives.
type Client struct {
	baseURL string
	http    *upstream.Client
	loader  *clientdata.Loader
	log     zerolog.Logger
}

// NewClient creates a data library client. loader may be nil.
func NewClient(httpClient *upstream.Client, loader *clientdata.Loader, log zerolog.Logger) *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		http:    httpClient,
		loader:  loader,
		log:     log.With().Str("client", "french").Logger(),
	}
}

// WithBaseURL points the client at another host, mostly for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// DailyFactors returns the merged five factor and momentum rows in
// ascending date order, cache first. Momentum is optional: when its archive
// fails the set is returned with HasMomentum false.
func (c *Client) DailyFactors(ctx context.Context) (domain.FactorSet, error) {
	set, _, err := clientdata.Load(ctx, c.loader, clientdata.TableFactorData, CacheKey, clientdata.TTLFactorData, c.fetch)
	return set, err
}

func (c *Client) fetch(ctx context.Context) (domain.FactorSet, error) {
	ffData, err := c.download(ctx, FiveFactorFile)
	if err != nil {
		return domain.FactorSet{}, fmt.Errorf("five factor data: %w", err)
	}
	rows, err := ParseFiveFactors(ffData)
	if err != nil {
		return domain.FactorSet{}, fmt.Errorf("five factor data: %w", err)
	}

	set := domain.FactorSet{Rows: rows}

	momData, err := c.download(ctx, MomentumFile)
	if err == nil {
		var mom map[string]float64
		mom, err = ParseMomentum(momData)
		if err == nil {
			set = MergeMomentum(set, mom)
		}
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("Momentum factor unavailable, continuing with five factors")
	}

	if len(set.Rows) > MaxRows {
		set.Rows = set.Rows[len(set.Rows)-MaxRows:]
	}

	c.log.Info().
		Int("rows", len(set.Rows)).
		Bool("momentum", set.HasMomentum).
		Msg("Fetched factor data")

	return set, nil
}

// download fetches an archive and returns the contents of its first file.
func (c *Client) download(ctx context.Context, file string) ([]byte, error) {
	body, err := c.http.GetBytes(ctx, Provider, c.baseURL+"/"+file, nil)
	if err != nil {
		return nil, err
	}
	return firstZipEntry(body)
}

func firstZipEntry(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid zip file: %w", err)
	}
	if len(zr.File) == 0 {
		return nil, fmt.Errorf("empty zip file")
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", zr.File[0].Name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}
