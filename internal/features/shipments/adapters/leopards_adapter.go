package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"leopards-connector/internal/core/config"
	"leopards-connector/internal/core/httpclient"
	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/features/shipments/domain"

	"go.uber.org/zap"
)

const (
	tariffTimeout   = 10 * time.Second
	bookTimeout     = 30 * time.Second
	cancelTimeout   = 60 * time.Second
	trackTimeout    = 30 * time.Second
	downloadTimeout = 30 * time.Second

	// maxErrorBody caps how much of a failed response is echoed into errors.
	maxErrorBody = 500
)

// endpointPaths are stripped from a configured URL that includes an endpoint by mistake.
var endpointPaths = []string{"/getTariffDetails", "/bookPacket", "/cancelBookedPackets", "/trackBookedPacket"}

// LeopardsAdapter implements ports.Courier against the Leopards merchant REST API.
type LeopardsAdapter struct {
	// client is the HTTP client used for API requests.
	client *http.Client
	// baseURL is the normalised API root, e.g. https://merchantapi.leopardscourier.com/api.
	baseURL   string
	apiKey    string
	apiSecret string
	accountID string
	logger    *zap.Logger
}

// NewLeopardsAdapter creates the adapter. Per-call timeouts are applied through the request context.
func NewLeopardsAdapter(cfg config.LeopardsConfig, opts ...httpclient.Option) *LeopardsAdapter {
	a := &LeopardsAdapter{
		client:    httpclient.NewClient(0, opts...),
		baseURL:   NormalizeBaseURL(cfg.APIURL, cfg.Production),
		apiKey:    NormalizeCredential(cfg.APIKey),
		apiSecret: NormalizeCredential(cfg.APISecret),
		accountID: strings.TrimSpace(cfg.AccountID),
		logger:    logger.Named("leopards"),
	}

	if len(a.apiKey) > 60 {
		a.logger.Warn("Leopards API key looks too long; check for pasted newlines or duplicates",
			zap.Int("length", len(a.apiKey)))
	}

	return a
}

// NormalizeBaseURL strips pasted endpoint paths, ensures the /api suffix on Leopards hosts and
// switches to the staging host outside production.
func NormalizeBaseURL(raw string, production bool) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	for _, p := range endpointPaths {
		if i := strings.Index(base, p); i >= 0 {
			base = strings.TrimRight(base[:i], "/")
		}
	}
	if base != "" && strings.Contains(base, "leopardscourier.com") && !strings.HasSuffix(base, "/api") {
		base += "/api"
	}
	if !production && !strings.Contains(base, "merchantapistaging") {
		base = strings.Replace(base, "merchantapi", "merchantapistaging", 1)
	}
	return base
}

// NormalizeCredential keeps the first token of the first line and undoes a doubled paste.
func NormalizeCredential(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r", "")
	first := strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
	if fields := strings.Fields(first); len(fields) > 0 {
		first = fields[0]
	}
	if len(first) > 50 {
		half := len(first) / 2
		if first[:half] == first[half:half*2] {
			return first[:half]
		}
		return first[:43]
	}
	return first
}

// BaseURL returns the normalised API root.
func (a *LeopardsAdapter) BaseURL() string {
	return a.baseURL
}

func (a *LeopardsAdapter) endpoint(name string) string {
	return fmt.Sprintf("%s/%s/format/json/", a.baseURL, name)
}

// authQuery returns the credential query parameters.
func (a *LeopardsAdapter) authQuery() url.Values {
	q := url.Values{}
	q.Set("api_key", a.apiKey)
	q.Set("api_password", a.apiSecret)
	return q
}

// do executes req and decodes a 2xx JSON body into out. Failures wrap domain.ErrUpstream.
func (a *LeopardsAdapter) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, transportError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: HTTP %d: %s", domain.ErrUpstream, resp.StatusCode, snippet(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: malformed response: %v", domain.ErrUpstream, err)
	}
	return nil
}

// transportError drops the credential-bearing query from a client error.
func transportError(err error) string {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err.Error()
	}
	target := "(invalid url)"
	if u, perr := url.Parse(uerr.URL); perr == nil {
		target = httpclient.RedactURL(u)
	}
	return fmt.Sprintf("%s %q: %v", uerr.Op, target, uerr.Err)
}

func snippet(body []byte) string {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return strings.TrimSpace(string(body))
}

// rejected builds the error for a reply whose status is not 1.
func rejected(text string) error {
	if text == "" {
		text = "Unknown error"
	}
	if strings.Contains(strings.ToLower(text), "invalid api") {
		return fmt.Errorf("%w: %w: %s", domain.ErrRejected, domain.ErrInvalidCredentials, text)
	}
	return fmt.Errorf("%w: %s", domain.ErrRejected, text)
}

// GetTariff calls getTariffDetails and returns the charge breakdown.
func (a *LeopardsAdapter) GetTariff(ctx context.Context, tr domain.TariffRequest) (domain.Tariff, error) {
	ctx, cancel := context.WithTimeout(ctx, tariffTimeout)
	defer cancel()

	q := a.authQuery()
	q.Set("packet_weight", strconv.Itoa(tr.WeightGrams))
	q.Set("shipment_type", "overnight")
	q.Set("origin_city", "self")
	q.Set("destination_city", tr.DestinationCity)
	q.Set("cod_amount", strconv.FormatInt(tr.CODAmount, 10))

	endpoint := a.endpoint("getTariffDetails")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return domain.Tariff{}, fmt.Errorf("failed to create request: %w", err)
	}

	a.logger.Info("Leopards rate API",
		zap.String("url", endpoint),
		zap.String("api_key", httpclient.MaskKey(a.apiKey)),
		zap.Int("api_password_len", len(a.apiSecret)),
		zap.Int("packet_weight", tr.WeightGrams),
		zap.String("destination_city", tr.DestinationCity),
		zap.Int64("cod_amount", tr.CODAmount),
	)

	var resp tariffResponse
	if err := a.do(req, &resp); err != nil {
		return domain.Tariff{}, err
	}

	if !resp.Status {
		text := errorText(resp.Error, "")
		a.logger.Warn("Leopards rate API returned error", zap.String("error", text))
		return domain.Tariff{}, rejected(text)
	}

	t := resp.tariff()
	a.logger.Info("Leopards rate calculated",
		zap.String("total", t.Total().String()),
		zap.String("shipment", t.ShipmentCharges.String()),
		zap.String("cash_handling", t.CashHandling.String()),
		zap.String("insurance", t.Insurance.String()),
		zap.String("gst", t.GST.String()),
		zap.String("fuel", t.FuelSurcharge.String()),
	)
	return t, nil
}

// BookPacket calls bookPacket with a flat JSON payload.
func (a *LeopardsAdapter) BookPacket(ctx context.Context, b domain.PacketBooking) (*domain.BookingResult, error) {
	ctx, cancel := context.WithTimeout(ctx, bookTimeout)
	defer cancel()

	payload := bookRequest{
		APIKey:              a.apiKey,
		APIPassword:         a.apiSecret,
		WeightGrams:         b.WeightGrams,
		Pieces:              b.Pieces,
		CollectAmount:       b.CollectAmount,
		OrderID:             b.OrderID,
		OriginCity:          "self",
		DestinationCity:     "self",
		ShipmentName:        b.Sender.Name,
		ShipmentEmail:       b.Sender.Email,
		ShipmentPhone:       b.Sender.Phone,
		ShipmentAddress:     b.Sender.Address,
		ConsigneeName:       b.ConsigneeName,
		ConsigneeEmail:      b.ConsigneeEmail,
		ConsigneePhone:      b.ConsigneePhone,
		ConsigneeAddress:    b.ConsigneeAddress,
		SpecialInstructions: b.SpecialInstructions,
		ShipmentID:          a.accountID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode booking: %w", err)
	}

	endpoint := a.endpoint("bookPacket")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	a.logger.Info("Leopards bookPacket API",
		zap.String("url", endpoint),
		zap.String("api_key", httpclient.MaskKey(a.apiKey)),
		zap.Int("api_password_len", len(a.apiSecret)),
		zap.String("order_id", b.OrderID),
		zap.Int("weight", b.WeightGrams),
		zap.Int64("collect_amount", b.CollectAmount),
	)

	var resp bookResponse
	if err := a.do(req, &resp); err != nil {
		return nil, err
	}

	if !resp.Status {
		text := errorText(resp.Error, "")
		a.logger.Error("Leopards booking failed",
			zap.String("error", text),
			zap.Int("api_key_len", len(a.apiKey)),
			zap.Int("api_password_len", len(a.apiSecret)),
		)
		return nil, rejected(text)
	}

	cn := strings.TrimSpace(string(resp.TrackNumber))
	if cn == "" {
		cn = strings.TrimSpace(string(resp.CNNumber))
	}
	slip := strings.TrimSpace(string(resp.SlipLink))
	if slip == "" {
		slip = strings.TrimSpace(string(resp.LabelURL))
	}

	return &domain.BookingResult{TrackingNumber: cn, SlipLink: slip}, nil
}

// CancelPackets calls cancelBookedPackets for a single CN.
func (a *LeopardsAdapter) CancelPackets(ctx context.Context, cn string) error {
	ctx, cancel := context.WithTimeout(ctx, cancelTimeout)
	defer cancel()

	body, err := json.Marshal(cancelRequest{APIKey: a.apiKey, APIPassword: a.apiSecret, CNNumbers: cn})
	if err != nil {
		return fmt.Errorf("failed to encode cancellation: %w", err)
	}

	endpoint := a.endpoint("cancelBookedPackets")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	a.logger.Info("Leopards cancelBookedPackets API",
		zap.String("url", endpoint),
		zap.String("api_key", httpclient.MaskKey(a.apiKey)),
		zap.String("cn", cn),
	)

	var resp cancelResponse
	if err := a.do(req, &resp); err != nil {
		return err
	}

	if !resp.Status {
		text := errorText(resp.Error, cn)
		a.logger.Error("Leopards cancellation failed", zap.String("cn", cn), zap.String("error", text))
		return rejected(text)
	}
	return nil
}

// TrackPackets calls trackBookedPacket for a single CN.
func (a *LeopardsAdapter) TrackPackets(ctx context.Context, cn string) (*domain.TrackResult, error) {
	ctx, cancel := context.WithTimeout(ctx, trackTimeout)
	defer cancel()

	q := a.authQuery()
	q.Set("track_numbers", cn)

	endpoint := a.endpoint("trackBookedPacket")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	a.logger.Info("Leopards trackBookedPacket API", zap.String("url", endpoint), zap.String("cn", cn))

	var resp trackResponse
	if err := a.do(req, &resp); err != nil {
		return nil, err
	}

	text := errorText(resp.Error, cn)
	result := &domain.TrackResult{
		Error:      text,
		CancelHint: domain.MentionsCancellation(text),
	}

	if !resp.Status {
		return result, rejected(text)
	}

	result.Packets = resp.packets()
	for _, p := range result.Packets {
		if p.HasCancelCode() {
			result.Cancelled = true
			break
		}
	}

	a.logger.Debug("Leopards track API response",
		zap.String("cn", cn),
		zap.Int("packets", len(result.Packets)),
		zap.Bool("cancelled", result.Cancelled),
	)
	return result, nil
}

// DownloadLabel fetches the slip behind link.
func (a *LeopardsAdapter) DownloadLabel(ctx context.Context, link string) (*domain.Label, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, transportError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read label: %v", domain.ErrUpstream, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: label download returned HTTP %d", domain.ErrUpstream, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &domain.Label{ContentType: contentType, Data: data}, nil
}
