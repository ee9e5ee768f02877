// Package foodfacts is a client for the Open Food Facts product search API.
package foodfacts

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL   = "https://uk.openfoodfacts.org"
	DefaultUserAgent = "GrocerySwap/1.0 (healthy-swap search)"
	DefaultPageSize  = 50
	DefaultTimeout   = 45 * time.Second

	// Market restricts searches to products sold in one country.
	Market = "United Kingdom"

	maxBodyBytes = 16 << 20
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat maps a config value to a Format. Empty selects JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unknown food-data format %q", s)
}

type Config struct {
	BaseURL   string
	UserAgent string
	PageSize  int
	Timeout   time.Duration
	Format    Format
}

// Record is one search hit with every field kept as raw text. Numbers in the
// JSON envelope are rendered as their literal text.
type Record struct {
	Code             string
	ProductName      string
	Brands           string
	NutriscoreGrade  string
	NovaGroup        string
	ImageURL         string
	Sugars100g       string
	Salt100g         string
	Fat100g          string
	SaturatedFat100g string
	Completeness     string
	Countries        string
	Categories       string
}

// ErrBadStatus is wrapped by Search when the API answers with a non-2xx status.
var ErrBadStatus = errors.New("foodfacts: unexpected status")

type Client struct {
	cfg    Config
	client *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Format == "" {
		cfg.Format = FormatJSON
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// SearchURL builds the search request URL for terms, ranked by popularity and
// restricted to Market.
func (c *Client) SearchURL(terms string, page int) string {
	if page < 1 {
		page = 1
	}
	v := url.Values{}
	v.Set("action", "process")
	v.Set("search_terms", terms)
	v.Set("tagtype_0", "countries")
	v.Set("tag_contains_0", "contains")
	v.Set("tag_0", Market)
	v.Set("sort_by", "unique_scans_n")
	v.Set("page_size", strconv.Itoa(c.cfg.PageSize))
	v.Set("page", strconv.Itoa(page))
	if c.cfg.Format == FormatCSV {
		v.Set("download", "on")
		v.Set("format", "csv")
	} else {
		v.Set("json", "true")
	}
	return c.cfg.BaseURL + "/cgi/search.pl?" + v.Encode()
}

// Search fetches one page of results for terms.
func (c *Client) Search(ctx context.Context, terms string, page int) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.SearchURL(terms, page), nil)
	if err != nil {
		return nil, fmt.Errorf("foodfacts: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("foodfacts: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBodyBytes)
	if c.cfg.Format == FormatCSV {
		return ParseCSV(body)
	}
	return ParseJSON(body)
}

// text accepts any JSON scalar and keeps its literal form. Objects, arrays and
// null decode to "".
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	if len(b) == 0 {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
	case '{', '[', 'n':
		*t = ""
	default:
		*t = text(b)
	}
	return nil
}

type jsonProduct struct {
	Code            text `json:"code"`
	ProductName     text `json:"product_name"`
	Brands          text `json:"brands"`
	NutriscoreGrade text `json:"nutriscore_grade"`
	NovaGroup       text `json:"nova_group"`
	ImageURL        text `json:"image_url"`
	Completeness    text `json:"completeness"`
	Countries       text `json:"countries"`
	Categories      text `json:"categories"`
	Nutriments      struct {
		Sugars       text `json:"sugars_100g"`
		Salt         text `json:"salt_100g"`
		Fat          text `json:"fat_100g"`
		SaturatedFat text `json:"saturated-fat_100g"`
	} `json:"nutriments"`
}

type jsonEnvelope struct {
	Products []jsonProduct `json:"products"`
}

// ParseJSON decodes the JSON search envelope.
func ParseJSON(r io.Reader) ([]Record, error) {
	var env jsonEnvelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("foodfacts: decode json: %w", err)
	}
	records := make([]Record, 0, len(env.Products))
	for _, p := range env.Products {
		records = append(records, Record{
			Code:             string(p.Code),
			ProductName:      string(p.ProductName),
			Brands:           string(p.Brands),
			NutriscoreGrade:  string(p.NutriscoreGrade),
			NovaGroup:        string(p.NovaGroup),
			ImageURL:         string(p.ImageURL),
			Sugars100g:       string(p.Nutriments.Sugars),
			Salt100g:         string(p.Nutriments.Salt),
			Fat100g:          string(p.Nutriments.Fat),
			SaturatedFat100g: string(p.Nutriments.SaturatedFat),
			Completeness:     string(p.Completeness),
			Countries:        string(p.Countries),
			Categories:       string(p.Categories),
		})
	}
	return records, nil
}

// ParseCSV decodes the tab-delimited export. The first row names the columns;
// unknown columns are ignored and missing ones read as "".
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("foodfacts: empty csv body")
	}
	if err != nil {
		return nil, fmt.Errorf("foodfacts: read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := col["code"]; !ok {
		return nil, fmt.Errorf("foodfacts: csv header has no code column")
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("foodfacts: read csv row: %w", err)
		}
		get := func(names ...string) string {
			for _, name := range names {
				if i, ok := col[name]; ok && i < len(row) {
					return row[i]
				}
			}
			return ""
		}
		records = append(records, Record{
			Code:             get("code"),
			ProductName:      get("product_name"),
			Brands:           get("brands"),
			NutriscoreGrade:  get("nutriscore_grade"),
			NovaGroup:        get("nova_group"),
			ImageURL:         get("image_url"),
			Sugars100g:       get("sugars_100g"),
			Salt100g:         get("salt_100g"),
			Fat100g:          get("fat_100g"),
			SaturatedFat100g: get("saturated-fat_100g"),
			Completeness:     get("completeness"),
			Countries:        get("countries_en", "countries"),
			Categories:       get("categories_en", "categories"),
		})
	}
	return records, nil
}
