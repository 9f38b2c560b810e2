package pricing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"doorstep/internal/domain"
	"doorstep/internal/modules/device"
	"doorstep/internal/pkg/apperr"
	"doorstep/internal/pkg/cache"
	"doorstep/internal/pkg/money"
	"doorstep/internal/repository"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("doorstep/pricing")

// deviationEpsilon absorbs float noise so a price exactly on the threshold passes.
const deviationEpsilon = 1e-9

// Resolver computes quotes from the pricing table, guarded by the static reference.
type Resolver struct {
	devices   deviceResolver
	catalog   catalogSource
	reference *Reference
	cache     cache.Cache[PriceBreakdown]
	threshold float64
	timeout   time.Duration
	log       *slog.Logger
}

type Options struct {
	Reference          *Reference
	Cache              cache.Cache[PriceBreakdown]
	DeviationThreshold float64
	LookupTimeout      time.Duration
	Logger             *slog.Logger
}

func NewResolver(devices deviceResolver, catalog catalogSource, opts Options) *Resolver {
	r := &Resolver{
		devices:   devices,
		catalog:   catalog,
		reference: opts.Reference,
		cache:     opts.Cache,
		threshold: opts.DeviationThreshold,
		timeout:   opts.LookupTimeout,
		log:       opts.Logger,
	}
	if r.reference == nil {
		r.reference = DefaultReference()
	}
	if r.cache == nil {
		r.cache = cache.Noop[PriceBreakdown]{}
	}
	if r.threshold <= 0 {
		r.threshold = 0.10
	}
	if r.timeout <= 0 {
		r.timeout = 3 * time.Second
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	return r
}

// dbQuote is the outcome of the table lookup, base already normalised to the standard tier.
type dbQuote struct {
	base    float64
	modelID int64
	service *domain.Service
}

// Calculate never fails on data problems: any lookup failure, missing row or
// deviation outlier yields a fallback quote from the static reference.
func (r *Resolver) Calculate(ctx context.Context, in QuoteInput) (*PriceBreakdown, error) {
	if strings.TrimSpace(in.DeviceType) == "" || strings.TrimSpace(in.Service) == "" {
		return nil, apperr.Validation("device_type and service are required", ErrInvalidQuoteInput)
	}
	tier, err := ParseTier(in.Tier)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("tier %q", in.Tier), err)
	}

	ctx, span := tracer.Start(ctx, "pricing.Calculate")
	defer span.End()
	span.SetAttributes(
		attribute.String("device_type", in.DeviceType),
		attribute.String("service", in.Service),
		attribute.String("tier", string(tier.Tier)),
	)

	key := in.cacheKey(tier.Tier)
	if cached, ok := r.cache.Get(key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cached.clone(), nil
	}

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reference := r.reference.Price(in.DeviceType, in.Service)

	q, reason, err := r.lookup(lookupCtx, in, tier.Tier)
	if reason == reasonDBUnavailable {
		r.log.Warn("pricing lookup failed, using static fallback",
			"device_type", in.DeviceType, "brand", in.Brand, "model", in.Model, "service", in.Service, "error", err)
		out := r.breakdown(reference, tier, 0, true, nil)
		span.SetAttributes(attribute.String("fallback_reason", reason))
		return out, nil
	}

	adjustment := r.locationAdjustment(lookupCtx, in.PostalCode)

	if reason != "" {
		r.log.Info("pricing fallback",
			"reason", reason, "device_type", in.DeviceType, "brand", in.Brand, "model", in.Model, "service", in.Service)
		span.SetAttributes(attribute.String("fallback_reason", reason))
		return r.breakdown(reference, tier, adjustment, true, nil), nil
	}

	deviation := math.Abs(q.base-reference) / reference
	if deviation > r.threshold+deviationEpsilon {
		r.log.Warn("pricing deviation safety triggered",
			"device_type", in.DeviceType, "brand", in.Brand, "model", in.Model, "service", in.Service,
			"tier", tier.Tier, "db_price", q.base, "reference_price", reference,
			"deviation", money.Round2(deviation), "threshold", r.threshold)
		span.SetAttributes(attribute.String("fallback_reason", reasonDeviation))
		return r.breakdown(reference, tier, adjustment, true, nil), nil
	}

	out := r.breakdown(q.base, tier, adjustment, false, &q)
	r.cache.Set(key, *out.clone())
	return out, nil
}

func (r *Resolver) breakdown(base float64, tier TierProfile, adjustment float64, fallback bool, q *dbQuote) *PriceBreakdown {
	out := &PriceBreakdown{
		BasePrice:          money.Round2(base),
		FinalPrice:         money.Round2(base * tier.Multiplier * (1 + adjustment)),
		TierMultiplier:     tier.Multiplier,
		LocationAdjustment: adjustment,
		FallbackUsed:       fallback,
		Tier:               tier.Tier,
		TurnaroundHours:    tier.TurnaroundHours,
		Currency:           "CAD",
	}
	if q != nil {
		modelID, serviceID := q.modelID, q.service.ID
		out.DeviceModelID = &modelID
		out.ServiceID = &serviceID
	}
	return out
}

// lookup returns a fallback reason instead of an error for every data problem.
// Only reasonDBUnavailable carries the underlying error.
func (r *Resolver) lookup(ctx context.Context, in QuoteInput, tier domain.PricingTier) (dbQuote, string, error) {
	model, err := r.devices.Resolve(ctx, in.DeviceType, in.Brand, in.Model)
	if errors.Is(err, device.ErrNotFound) {
		return dbQuote{}, reasonDeviceNotFound, nil
	}
	if err != nil {
		return dbQuote{}, reasonDBUnavailable, err
	}

	svc, err := r.catalog.GetServiceBySlug(ctx, in.Service, in.DeviceType)
	if errors.Is(err, repository.ErrNotFound) {
		return dbQuote{}, reasonServiceNotFound, nil
	}
	if err != nil {
		return dbQuote{}, reasonDBUnavailable, err
	}
	if !svc.IsActive {
		return dbQuote{}, reasonServiceNotFound, nil
	}

	records, err := r.catalog.ListActivePricing(ctx, model.ID, svc.ID)
	if err != nil {
		return dbQuote{}, reasonDBUnavailable, err
	}
	rec, ok := pickRecord(records, tier)
	if !ok {
		return dbQuote{}, reasonPricingMissing, nil
	}

	return dbQuote{
		base:    rec.BasePrice / multiplierOf(rec.Tier),
		modelID: model.ID,
		service: svc,
	}, "", nil
}

// pickRecord prefers a row priced for the requested tier, then a standard row.
func pickRecord(records []domain.PricingRecord, tier domain.PricingTier) (domain.PricingRecord, bool) {
	var standard, first *domain.PricingRecord
	for i := range records {
		rec := &records[i]
		if !rec.IsActive || rec.BasePrice <= 0 {
			continue
		}
		if rec.Tier == tier {
			return *rec, true
		}
		if standard == nil && (rec.Tier == domain.TierStandard || rec.Tier == "") {
			standard = rec
		}
		if first == nil {
			first = rec
		}
	}
	if standard != nil {
		return *standard, true
	}
	if first != nil {
		return *first, true
	}
	return domain.PricingRecord{}, false
}

// locationAdjustment matches the longest active postal prefix. Unknown or
// unserviceable codes and lookup errors all mean no adjustment.
func (r *Resolver) locationAdjustment(ctx context.Context, postalCode string) float64 {
	postal := normalizePostal(postalCode)
	if postal == "" {
		return 0
	}
	locations, err := r.catalog.ListActiveLocations(ctx)
	if err != nil {
		r.log.Warn("service location lookup failed", "error", err)
		return 0
	}

	best, bestLen := 0.0, 0
	for _, loc := range locations {
		for _, prefix := range strings.Split(loc.PostalCodePrefixes, ",") {
			p := normalizePostal(prefix)
			if p == "" || !strings.HasPrefix(postal, p) || len(p) <= bestLen {
				continue
			}
			best, bestLen = loc.PriceAdjustmentPercentage/100, len(p)
		}
	}
	return best
}

// InvalidateCache drops every cached quote.
func (r *Resolver) InvalidateCache() {
	r.cache.Flush()
}
