package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"leopards-connector/internal/core/logger"
	"leopards-connector/internal/features/shipments/domain"
	"leopards-connector/internal/features/shipments/ports"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	warnFixedIncompleteAddress = "Using fixed price. Add city or country for accurate rates."
	warnFixedRateUnavailable   = "Using fixed price. API rate calculation unavailable."
	errIncompleteAddress       = "Shipping address is incomplete. Please provide at least city or country."
	errRateUnavailable         = "Unable to get shipping rate from Leopards Courier."
	hintRateUnavailable        = " Please either: 1) Set a fixed price, 2) Check API credentials and URL, 3) Check the logs for details."
	tipFixedPrice              = "Tip: Set a fixed shipping price (LEOPARDS_FIXED_PRICE) to bypass API rate calculation."
)

// ErrNoRate is returned when the courier answers with a zero tariff.
var ErrNoRate = errors.New("courier returned no rate")

// QuoteService prices shipments with the courier tariff and a fixed-price fallback.
type QuoteService struct {
	courier    ports.Courier
	cache      ports.TariffCache
	fixedPrice decimal.Decimal
	codEnabled bool
	logger     *zap.Logger
}

// NewQuoteService creates a QuoteService. cache may be nil to disable caching.
func NewQuoteService(courier ports.Courier, cache ports.TariffCache, fixedPrice decimal.Decimal, codEnabled bool) *QuoteService {
	return &QuoteService{
		courier:    courier,
		cache:      cache,
		fixedPrice: fixedPrice,
		codEnabled: codEnabled,
		logger:     logger.Named("quotes"),
	}
}

// CODEnabled reports whether order totals are sent as cash-on-delivery amounts.
func (s *QuoteService) CODEnabled() bool {
	return s.codEnabled
}

// Tariff returns the total tariff for req, consulting the cache first.
func (s *QuoteService) Tariff(ctx context.Context, req domain.TariffRequest) (decimal.Decimal, error) {
	key := req.CacheKey()
	if s.cache != nil {
		if total, ok := s.cache.Get(ctx, key); ok {
			s.logger.Debug("Tariff cache hit", zap.String("key", key))
			return total, nil
		}
	}

	tariff, err := s.courier.GetTariff(ctx, req)
	if err != nil {
		return decimal.Zero, err
	}

	total := tariff.Total()
	if !total.IsPositive() {
		return decimal.Zero, ErrNoRate
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, total)
	}
	return total, nil
}

// Quote prices an order. It never returns an error; failures are reported in the Quote.
func (s *QuoteService) Quote(ctx context.Context, req domain.QuoteRequest) domain.Quote {
	hasFixed := s.fixedPrice.IsPositive()

	if !req.HasDestination() {
		if hasFixed {
			s.logger.Info("Shipping address incomplete, using fixed price", zap.String("price", s.fixedPrice.String()))
			return domain.Quote{Success: true, Price: s.fixedPrice, Warning: warnFixedIncompleteAddress}
		}
		return domain.Quote{Success: false, Price: decimal.Zero, Error: errIncompleteAddress}
	}

	cod := decimal.Zero
	if s.codEnabled && req.OrderTotal.IsPositive() {
		cod = req.OrderTotal
	}

	total, err := s.Tariff(ctx, domain.NewTariffRequest(req.ResolveWeight(), req.City, cod))
	if err == nil {
		return domain.Quote{Success: true, Price: total}
	}

	apiErr := strings.TrimSpace(err.Error())

	if hasFixed {
		s.logger.Info("Leopards API rate unavailable, using fixed price",
			zap.String("price", s.fixedPrice.String()),
			zap.Error(err),
		)
		return domain.Quote{Success: true, Price: s.fixedPrice, Warning: warnFixedRateUnavailable + " API Error: " + apiErr}
	}

	s.logger.Warn("Rate calculation failed", zap.String("city", req.City), zap.Error(err))

	msg := errRateUnavailable
	if apiErr != "" {
		msg += " Error: " + apiErr
	} else {
		msg += hintRateUnavailable
	}
	return domain.Quote{Success: false, Price: decimal.Zero, Error: msg, Warning: tipFixedPrice}
}

// TestConnection quotes 1 kg to "self" to validate credentials and returns the sample rate.
func (s *QuoteService) TestConnection(ctx context.Context) (decimal.Decimal, error) {
	tariff, err := s.courier.GetTariff(ctx, domain.NewTariffRequest(1.0, "self", decimal.Zero))
	if err != nil {
		return decimal.Zero, fmt.Errorf("connection failed: %w", err)
	}
	total := tariff.Total()
	if !total.IsPositive() {
		return decimal.Zero, fmt.Errorf("connection failed: %w", ErrNoRate)
	}
	return total, nil
}
