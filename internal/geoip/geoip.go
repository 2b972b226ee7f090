// Package geoip wraps the ip-api.com lookup the fingerprint probe relies on.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Маска полей ip-api.com: status,message,country,regionName,city,zip,lat,lon,
// timezone,isp,org,as,mobile,proxy,hosting,query
const fieldsMask = "66846719"

const defaultBaseURL = "http://ip-api.com"

// Result содержит нормализованный ответ геолокации. Флаги приводятся к
// Yes/No, пропуски заменяются на Unknown, как ожидает клиентская часть.
type Result struct {
	IP       string  `json:"ip"`
	City     string  `json:"city"`
	Region   string  `json:"region"`
	Country  string  `json:"country"`
	ISP      string  `json:"isp"`
	Org      string  `json:"org"`
	ASN      string  `json:"asn"`
	Mobile   string  `json:"mobile"`
	Proxy    string  `json:"proxy"`
	Hosting  string  `json:"hosting"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
}

type apiResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Query      string  `json:"query"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Country    string  `json:"country"`
	ISP        string  `json:"isp"`
	Org        string  `json:"org"`
	AS         string  `json:"as"`
	Mobile     bool    `json:"mobile"`
	Proxy      bool    `json:"proxy"`
	Hosting    bool    `json:"hosting"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Timezone   string  `json:"timezone"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    defaultBaseURL,
	}
}

// NewClientWithBaseURL используется в тестах для подмены ip-api.com
func NewClientWithBaseURL(baseURL string) *Client {
	c := NewClient()
	c.baseURL = baseURL
	return c
}

// Lookup запрашивает геоданные по IP. Для локальных адресов запрашивается
// публичный IP самого вызывающего (поведение для локальной разработки).
func (c *Client) Lookup(ctx context.Context, ip string) (*Result, error) {
	url := fmt.Sprintf("%s/json/%s?fields=%s", c.baseURL, ip, fieldsMask)
	if isLocal(ip) {
		url = fmt.Sprintf("%s/json/?fields=%s", c.baseURL, fieldsMask)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup failed: %w", err)
	}
	defer resp.Body.Close()

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode geo response: %w", err)
	}
	if data.Status == "fail" {
		return nil, fmt.Errorf("geo lookup failed: %s", data.Message)
	}

	return &Result{
		IP:       data.Query,
		City:     orUnknown(data.City),
		Region:   orUnknown(data.RegionName),
		Country:  orUnknown(data.Country),
		ISP:      orUnknown(data.ISP),
		Org:      orUnknown(data.Org),
		ASN:      orUnknown(data.AS),
		Mobile:   yesNo(data.Mobile),
		Proxy:    yesNo(data.Proxy),
		Hosting:  yesNo(data.Hosting),
		Lat:      data.Lat,
		Lon:      data.Lon,
		Timezone: orDefault(data.Timezone, "UTC"),
	}, nil
}

func isLocal(ip string) bool {
	return ip == "" || ip == "::1" || ip == "127.0.0.1"
}

func orUnknown(s string) string {
	return orDefault(s, "Unknown")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
