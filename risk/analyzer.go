package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"
	cache "github.com/patrickmn/go-cache"
)

// Input is the network/location data captured for one KYC submission.
type Input struct {
	IPAddress string       `json:"ip_address"`
	Country   string       `json:"country,omitempty"`
	Geo       *Geolocation `json:"geolocation,omitempty"`
}

// Geolocation is the browser-reported location, when the submitter granted it.
type Geolocation struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Location is the provider-resolved location for an IP address.
type Location struct {
	Country      string  `json:"country"`
	CountryCode  string  `json:"country_code,omitempty"`
	Region       string  `json:"region,omitempty"`
	City         string  `json:"city,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`
	ZipCode      string  `json:"zip_code,omitempty"`
	Timezone     string  `json:"timezone,omitempty"`
	ISP          string  `json:"isp,omitempty"`
	Organization string  `json:"organization,omitempty"`
	Domain       string  `json:"domain,omitempty"`
	UsageType    string  `json:"usage_type,omitempty"`
}

// ProxyInfo carries the provider's proxy detail block when one is present.
type ProxyInfo struct {
	ProxyType          string `json:"proxy_type,omitempty"`
	Provider           string `json:"provider,omitempty"`
	IsVPN              bool   `json:"is_vpn"`
	IsTor              bool   `json:"is_tor"`
	IsDataCenter       bool   `json:"is_data_center"`
	IsPublicProxy      bool   `json:"is_public_proxy"`
	IsWebProxy         bool   `json:"is_web_proxy"`
	IsResidentialProxy bool   `json:"is_residential_proxy"`
	IsSpammer          bool   `json:"is_spammer"`
	IsScanner          bool   `json:"is_scanner"`
	IsBotnet           bool   `json:"is_botnet"`
	Threat             string `json:"threat,omitempty"`
	LastSeen           string `json:"last_seen,omitempty"`
}

// Risk levels derived from the provider fraud score.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"

	ConfidenceLow  = "low"
	ConfidenceHigh = "high"
)

// Report is the complete risk verdict for one submission. Every field is
// always populated; RealLocation and ProxyInfo are nil only on the
// documented degraded paths.
type Report struct {
	VPNDetected      bool       `json:"vpn_detected"`
	LocationMismatch bool       `json:"location_mismatch"`
	RealLocation     *Location  `json:"real_location,omitempty"`
	ProxyInfo        *ProxyInfo `json:"proxy_info,omitempty"`
	FraudScore       int        `json:"fraud_score"`
	FraudRisk        string     `json:"fraud_risk"`
	Confidence       string     `json:"confidence"`
}

const (
	defaultEndpoint = "https://api.ip2location.io/"
	defaultTimeout  = 5 * time.Second

	cacheTTL         = 24 * time.Hour
	cachePurgePeriod = 1 * time.Hour
)

// Analyzer resolves an IP reputation verdict for submissions. It is safe for
// concurrent use; provider responses are cached per IP for 24 hours.
type Analyzer struct {
	apiKey   string
	endpoint string
	client   *http.Client
	cache    *cache.Cache
	geo      *geoip2.Reader
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Analyzer) { a.client = c }
}

// WithEndpoint overrides the provider endpoint (used by tests and for
// self-hosted mirrors).
func WithEndpoint(endpoint string) Option {
	return func(a *Analyzer) { a.endpoint = endpoint }
}

// WithLocalGeoIP attaches a local GeoIP2/GeoLite2 database used to fill in a
// coarse location on the fallback path. An unreadable path is a no-op.
func WithLocalGeoIP(dbPath string) Option {
	return func(a *Analyzer) {
		if dbPath == "" {
			return
		}
		r, err := geoip2.Open(dbPath)
		if err != nil {
			log.Printf("risk: GeoIP database not loaded: %v", err)
			return
		}
		a.geo = r
	}
}

// NewAnalyzer creates an Analyzer. An empty apiKey is allowed: every lookup
// then takes the fallback path.
func NewAnalyzer(apiKey string, opts ...Option) *Analyzer {
	a := &Analyzer{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: defaultTimeout},
		cache:    cache.New(cacheTTL, cachePurgePeriod),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Close releases the local GeoIP reader if one was attached.
func (a *Analyzer) Close() {
	if a.geo != nil {
		_ = a.geo.Close()
		a.geo = nil
	}
}

// Analyze produces a risk report for the submission's network data. It never
// returns an error: configuration gaps, private addresses, provider failures
// and timeouts all degrade to the low-confidence fallback report.
func (a *Analyzer) Analyze(ctx context.Context, input Input) Report {
	ip := strings.TrimSpace(input.IPAddress)
	if skipLookup(ip) {
		return a.fallback(input)
	}
	if a.apiKey == "" {
		log.Printf("risk: provider API key not configured, using fallback for %s", ip)
		return a.fallback(input)
	}

	resp, ok := a.lookup(ctx, ip)
	if !ok {
		return a.fallback(input)
	}
	return buildReport(resp, input)
}

// skipLookup reports whether the address cannot be meaningfully geolocated:
// empty, unparseable, loopback, or in a private range.
func skipLookup(ip string) bool {
	if ip == "" {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return true
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified()
}

// providerResponse mirrors the subset of the ip2location.io payload the
// analyzer consumes. The full schema is owned by the provider.
type providerResponse struct {
	CountryName string  `json:"country_name"`
	CountryCode string  `json:"country_code"`
	RegionName  string  `json:"region_name"`
	CityName    string  `json:"city_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	ZipCode     string  `json:"zip_code"`
	TimeZone    string  `json:"time_zone"`
	ISP         string  `json:"isp"`
	AS          string  `json:"as"`
	Domain      string  `json:"domain"`
	UsageType   string  `json:"usage_type"`
	IsProxy     bool    `json:"is_proxy"`
	FraudScore  int     `json:"fraud_score"`
	Proxy       *struct {
		ProxyType          string `json:"proxy_type"`
		Provider           string `json:"provider"`
		IsVPN              bool   `json:"is_vpn"`
		IsTor              bool   `json:"is_tor"`
		IsDataCenter       bool   `json:"is_data_center"`
		IsPublicProxy      bool   `json:"is_public_proxy"`
		IsWebProxy         bool   `json:"is_web_proxy"`
		IsResidentialProxy bool   `json:"is_residential_proxy"`
		IsSpammer          bool   `json:"is_spammer"`
		IsScanner          bool   `json:"is_scanner"`
		IsBotnet           bool   `json:"is_botnet"`
		Threat             string `json:"threat"`
		LastSeen           string `json:"last_seen"`
	} `json:"proxy"`
}

func (a *Analyzer) lookup(ctx context.Context, ip string) (*providerResponse, bool) {
	if cached, found := a.cache.Get(ip); found {
		if resp, ok := cached.(*providerResponse); ok {
			return resp, true
		}
	}

	endpoint := fmt.Sprintf("%s?key=%s&ip=%s", a.endpoint, url.QueryEscape(a.apiKey), url.QueryEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Printf("risk: building provider request failed: %v", err)
		return nil, false
	}

	httpResp, err := a.client.Do(req)
	if err != nil {
		log.Printf("risk: provider lookup failed for %s: %v", ip, err)
		return nil, false
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		log.Printf("risk: provider returned status %d for %s", httpResp.StatusCode, ip)
		return nil, false
	}

	var resp providerResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		log.Printf("risk: decoding provider response failed for %s: %v", ip, err)
		return nil, false
	}

	a.cache.Set(ip, &resp, cache.DefaultExpiration)
	return &resp, true
}

func buildReport(resp *providerResponse, input Input) Report {
	report := Report{
		FraudScore: resp.FraudScore,
		FraudRisk:  fraudRisk(resp.FraudScore),
		Confidence: ConfidenceHigh,
	}

	report.VPNDetected = resp.IsProxy
	if resp.Proxy != nil {
		report.VPNDetected = report.VPNDetected ||
			resp.Proxy.IsVPN || resp.Proxy.IsTor || resp.Proxy.IsDataCenter ||
			resp.Proxy.IsPublicProxy || resp.Proxy.IsWebProxy
		report.ProxyInfo = &ProxyInfo{
			ProxyType:          resp.Proxy.ProxyType,
			Provider:           resp.Proxy.Provider,
			IsVPN:              resp.Proxy.IsVPN,
			IsTor:              resp.Proxy.IsTor,
			IsDataCenter:       resp.Proxy.IsDataCenter,
			IsPublicProxy:      resp.Proxy.IsPublicProxy,
			IsWebProxy:         resp.Proxy.IsWebProxy,
			IsResidentialProxy: resp.Proxy.IsResidentialProxy,
			IsSpammer:          resp.Proxy.IsSpammer,
			IsScanner:          resp.Proxy.IsScanner,
			IsBotnet:           resp.Proxy.IsBotnet,
			Threat:             resp.Proxy.Threat,
			LastSeen:           resp.Proxy.LastSeen,
		}
	}

	report.RealLocation = &Location{
		Country:      resp.CountryName,
		CountryCode:  resp.CountryCode,
		Region:       resp.RegionName,
		City:         resp.CityName,
		Latitude:     resp.Latitude,
		Longitude:    resp.Longitude,
		ZipCode:      resp.ZipCode,
		Timezone:     resp.TimeZone,
		ISP:          resp.ISP,
		Organization: resp.AS,
		Domain:       resp.Domain,
		UsageType:    resp.UsageType,
	}

	report.LocationMismatch = countriesDiffer(input.Country, resp.CountryName)
	return report
}

// fallback is the single degraded path: a coarse textual VPN heuristic, a
// browser-geo country comparison, and (when a local GeoIP database is
// attached) a best-effort location. Confidence is always low.
func (a *Analyzer) fallback(input Input) Report {
	report := Report{
		FraudRisk:  RiskLow,
		Confidence: ConfidenceLow,
	}

	ip := strings.TrimSpace(input.IPAddress)
	if strings.HasPrefix(ip, "10.") || strings.HasPrefix(ip, "172.") || strings.HasPrefix(ip, "192.168.") {
		report.VPNDetected = true
	}

	if input.Geo != nil {
		report.LocationMismatch = countriesDiffer(input.Country, input.Geo.Country)
	}

	if loc := a.localLocation(ip); loc != nil {
		report.RealLocation = loc
	}

	return report
}

// localLocation resolves a coarse city/country from the attached GeoIP
// database. Returns nil when no database is attached or the lookup fails.
func (a *Analyzer) localLocation(ip string) *Location {
	if a.geo == nil {
		return nil
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil
	}
	rec, err := a.geo.City(parsed)
	if err != nil {
		return nil
	}

	loc := &Location{CountryCode: rec.Country.IsoCode}
	if v, ok := rec.Country.Names["en"]; ok {
		loc.Country = v
	}
	if v, ok := rec.City.Names["en"]; ok {
		loc.City = v
	}
	if loc.Country == "" && loc.City == "" && loc.CountryCode == "" {
		return nil
	}
	return loc
}

func fraudRisk(score int) string {
	switch {
	case score > 75:
		return RiskHigh
	case score > 50:
		return RiskMedium
	default:
		return RiskLow
	}
}

// countriesDiffer reports a mismatch only when both values are present and
// differ case-insensitively.
func countriesDiffer(declared, resolved string) bool {
	if declared == "" || resolved == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(declared), strings.TrimSpace(resolved))
}
