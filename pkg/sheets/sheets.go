// Package sheets reads tabular data from the remote spreadsheet API.
package sheets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"
)

const (
	defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

	// requestTimeout bounds how long one remote read can block the
	// single-flight guard in front of it.
	requestTimeout = 30 * time.Second
)

// Reader fetches a rectangular range of string cells, header row
// included. The HTTP client is supplied per call by the session gate.
type Reader interface {
	ReadRange(ctx context.Context, httpc *http.Client, spreadsheetID, sheetName, rangeExpr string) ([][]string, error)
}

// FetchError is a remote read failure carrying the upstream status so
// the failure classifier can recognize revoked-grant responses.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("sheet fetch failed: status %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("sheet fetch failed: status %d", e.Status)
}

func (e *FetchError) StatusCode() int { return e.Status }

// Client is the REST implementation of Reader.
type Client struct {
	BaseURL string // overridable for tests; defaults to the Sheets v4 endpoint
	Timeout time.Duration
}

func NewClient() *Client {
	return &Client{BaseURL: defaultBaseURL, Timeout: requestTimeout}
}

// ReadRange performs an authenticated values read and decodes the
// response into rows of strings.
func (c *Client) ReadRange(ctx context.Context, httpc *http.Client, spreadsheetID, sheetName, rangeExpr string) ([][]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	rangeRef := rangeExpr
	if sheetName != "" {
		rangeRef = sheetName + "!" + rangeExpr
	}
	reqURL := fmt.Sprintf("%s/%s/values/%s?majorDimension=ROWS",
		c.baseURL(), url.PathEscape(spreadsheetID), url.PathEscape(rangeRef))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = httpc
	client.RetryMax = 2
	client.Logger = nil

	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheet fetch failed: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("sheet fetch failed: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, &FetchError{
			Status:  res.StatusCode,
			Message: gjson.GetBytes(body, "error.message").Str,
		}
	}

	var rows [][]string
	for _, rawRow := range gjson.GetBytes(body, "values").Array() {
		var row []string
		for _, cell := range rawRow.Array() {
			row = append(row, cell.String())
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return requestTimeout
}
