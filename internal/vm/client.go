package vm

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rtm0/eddytracks/internal/eddy"
)

// Client is a Victoria Metrics client capable of inserting eddy track
// summaries via various protocols.
type Client struct {
	logger       *slog.Logger
	httpCli      *http.Client
	insertURL    string
	metricPrefix string
	sumToText    sumToTextFunc
}

const metricPrefixRE = "^[a-zA-Z0-9]+$"

// NewClient creates a new VM client.
func NewClient(logger *slog.Logger, insertURL string, maxConns int, metricPrefix string) (*Client, error) {
	url, err := url.Parse(insertURL)
	if err != nil {
		return nil, err
	}

	matches, err := regexp.MatchString(metricPrefixRE, metricPrefix)
	if err != nil {
		return nil, err
	}
	if !matches {
		return nil, fmt.Errorf("metric prefix %q does not match %q regular expression", metricPrefix, metricPrefixRE)
	}

	apiParams := apiParamsFuncs[url.Path]
	if apiParams == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}
	q := url.Query()
	for name, value := range apiParams(metricPrefix) {
		q.Add(name, value)
	}
	url.RawQuery = q.Encode()

	sumToText := sumToTextFuncs[url.Path]
	if sumToText == nil {
		return nil, fmt.Errorf("inserting into %q is not supported", insertURL)
	}

	return &Client{
		logger: logger,
		httpCli: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        maxConns,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: maxConns,
				MaxConnsPerHost:     maxConns,
			},
		},
		insertURL:    url.String(),
		metricPrefix: metricPrefix,
		sumToText:    sumToText,
	}, nil
}

// Insert inserts track summaries into Victoria Metrics.
func (c *Client) Insert(sums []eddy.Summary) error {
	res, err := c.httpCli.Post(c.insertURL, "text/plain", sumsToText(sums, c.metricPrefix, c.sumToText))
	if err != nil {
		return fmt.Errorf("could not post data: %w", err)
	}
	defer res.Body.Close()
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		c.logger.Error("Failed to drain response body", "err", err)
	}
	if res.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	return nil
}

type apiParamsFunc func(string) map[string]string

var apiParamsFuncs = map[string]apiParamsFunc{
	"/influx/write":        influxDBAPIParams,
	"/influx/api/v2/write": influxDBAPIParams,
	"/write":               influxDBAPIParams,
	"/api/v2/write":        influxDBAPIParams,
	"/api/v1/import/csv":   csvAPIParams,
}

func influxDBAPIParams(metricPrefix string) map[string]string {
	return nil
}

func csvAPIParams(metricPrefix string) map[string]string {
	return map[string]string{
		"format": fmt.Sprintf(""+
			"1:label:track,"+
			"2:label:rotation,"+
			"3:metric:%[1]s_lifetime,"+
			"4:metric:%[1]s_observed,"+
			"5:metric:%[1]s_filled,"+
			"6:metric:%[1]s_distance_km", metricPrefix),
	}
}

type sumToTextFunc func(*strings.Builder, *eddy.Summary, string)

// sumsToText converts multiple track summaries to text.
func sumsToText(sums []eddy.Summary, metricPrefix string, sumToText sumToTextFunc) io.Reader {
	var sb strings.Builder
	for _, s := range sums {
		sumToText(&sb, &s, metricPrefix)
		sb.WriteString("\n")
	}
	return strings.NewReader(sb.String())
}

var sumToTextFuncs = map[string]sumToTextFunc{
	"/influx/write":        sumToInfluxDB,
	"/influx/api/v2/write": sumToInfluxDB,
	"/write":               sumToInfluxDB,
	"/api/v2/write":        sumToInfluxDB,
	"/api/v1/import/csv":   sumToCSV,
}

var influxDBFmt = "%s,track=%d,rotation=%s lifetime=%d,observed=%d,filled=%d,distance_km=%.3f"

// sumToInfluxDB converts a track summary into InfluxDB line protocol v2 and
// appends it to the string builder. Victoria Metrics stamps the lines with
// the time of insertion.
func sumToInfluxDB(sb *strings.Builder, s *eddy.Summary, metricPrefix string) {
	fmt.Fprintf(sb, influxDBFmt,
		metricPrefix,
		s.Index,
		s.Rotation,
		s.Lifetime,
		s.Observed,
		s.Filled,
		s.DistanceKm,
	)
}

var csvFmt = "%d,%s,%d,%d,%d,%.3f"

// sumToCSV converts a track summary into a CSV record and appends it to the
// string builder.
func sumToCSV(sb *strings.Builder, s *eddy.Summary, _ string) {
	fmt.Fprintf(sb, csvFmt,
		s.Index,
		s.Rotation,
		s.Lifetime,
		s.Observed,
		s.Filled,
		s.DistanceKm,
	)
}
