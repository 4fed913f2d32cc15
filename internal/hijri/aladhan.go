package hijri

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL      = "https://api.aladhan.com/v1"
	defaultHTTPTimeout = 10 * time.Second
	defaultCacheTTL    = 24 * time.Hour
)

// AladhanConverter implements Converter using the aladhan.com gToH API
// (calendar=UAQ selects the Umm al-Qura calculation)
type AladhanConverter struct {
	apiURL     string
	httpClient *http.Client
	logger     *zap.Logger
	cache      map[string]*cachedDate
	cacheMu    sync.RWMutex
	cacheTTL   time.Duration
}

type cachedDate struct {
	data      Date
	fetchedAt time.Time
}

// gToHResponse represents the aladhan.com API response
type gToHResponse struct {
	Code   int    `json:"code"`
	Status string `json:"status"`
	Data   struct {
		Hijri struct {
			Day   string `json:"day"`
			Year  string `json:"year"`
			Month struct {
				Number int    `json:"number"`
				En     string `json:"en"`
			} `json:"month"`
		} `json:"hijri"`
	} `json:"data"`
}

// NewAladhanConverter creates a new AladhanConverter instance
func NewAladhanConverter(apiURL string, cacheTTL time.Duration, logger *zap.Logger) *AladhanConverter {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	if cacheTTL == 0 {
		cacheTTL = defaultCacheTTL
	}

	return &AladhanConverter{
		apiURL: apiURL,
		httpClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		logger:   logger,
		cache:    make(map[string]*cachedDate),
		cacheTTL: cacheTTL,
	}
}

// ToHijri converts the given Gregorian date to a Hijri date
func (c *AladhanConverter) ToHijri(date time.Time) (Date, error) {
	cacheKey := date.Format("2006-01-02")

	c.cacheMu.RLock()
	if cached, ok := c.cache[cacheKey]; ok {
		if time.Since(cached.fetchedAt) < c.cacheTTL {
			c.cacheMu.RUnlock()
			c.logger.Debug("Using cached hijri date",
				zap.String("date", cacheKey))
			return cached.data, nil
		}
	}
	c.cacheMu.RUnlock()

	hijriDate, err := c.fetchFromAPI(date)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %v", ErrConversionUnavailable, err)
	}

	c.cacheMu.Lock()
	c.cache[cacheKey] = &cachedDate{
		data:      hijriDate,
		fetchedAt: time.Now(),
	}
	c.cacheMu.Unlock()

	return hijriDate, nil
}

// fetchFromAPI fetches the conversion from aladhan.com
func (c *AladhanConverter) fetchFromAPI(date time.Time) (Date, error) {
	// URL format: {base}/gToH/{DD-MM-YYYY}?calendarMethod=UAQ
	url := fmt.Sprintf("%s/gToH/%s?calendarMethod=UAQ",
		c.apiURL, date.Format("02-01-2006"))

	c.logger.Debug("Fetching hijri conversion",
		zap.String("url", url),
		zap.String("date", date.Format("2006-01-02")))

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return Date{}, fmt.Errorf("failed to fetch conversion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Date{}, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var apiResp gToHResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return Date{}, fmt.Errorf("failed to parse API response: %w", err)
	}

	if apiResp.Code != http.StatusOK {
		return Date{}, fmt.Errorf("API returned code %d (%s)", apiResp.Code, apiResp.Status)
	}

	day, err := strconv.Atoi(apiResp.Data.Hijri.Day)
	if err != nil {
		return Date{}, fmt.Errorf("failed to parse hijri day %q: %w", apiResp.Data.Hijri.Day, err)
	}

	year, err := strconv.Atoi(apiResp.Data.Hijri.Year)
	if err != nil {
		return Date{}, fmt.Errorf("failed to parse hijri year %q: %w", apiResp.Data.Hijri.Year, err)
	}

	month := apiResp.Data.Hijri.Month.Number
	if month < 1 || month > 12 {
		return Date{}, fmt.Errorf("hijri month out of range: %d", month)
	}
	if day < 1 || day > 30 {
		return Date{}, fmt.Errorf("hijri day out of range: %d", day)
	}

	return Date{Year: year, Month: month, Day: day}, nil
}

// ClearCache clears the conversion cache
func (c *AladhanConverter) ClearCache() {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	c.cache = make(map[string]*cachedDate)
	c.logger.Info("Conversion cache cleared")
}
