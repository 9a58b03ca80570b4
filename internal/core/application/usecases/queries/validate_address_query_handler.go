package queries

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"pharmacy/internal/core/domain/model/kernel"
	"pharmacy/internal/core/domain/services"
	"pharmacy/internal/core/ports"
)

const DefaultGeocodeTimeout = 3 * time.Second

// ValidateAddressQueryHandler fills in a missing coordinate through the geocoder and then
// applies the service area policy. Geocoding is best effort: a failure leaves the address
// as it was and the policy decides.
type ValidateAddressQueryHandler struct {
	geocoder ports.Geocoder
	policy   services.ServiceAreaPolicy
	timeout  time.Duration
	logger   *slog.Logger
}

// NewValidateAddressQueryHandler builds the handler. geocoder may be nil; a nil policy
// accepts every address.
func NewValidateAddressQueryHandler(
	geocoder ports.Geocoder,
	policy services.ServiceAreaPolicy,
	timeout time.Duration,
	logger *slog.Logger,
) ValidateAddressQueryHandler {
	if policy == nil {
		policy = services.PermissiveServiceArea{}
	}
	if timeout <= 0 {
		timeout = DefaultGeocodeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return ValidateAddressQueryHandler{
		geocoder: geocoder,
		policy:   policy,
		timeout:  timeout,
		logger:   logger.With("component", "ValidateAddressQueryHandler"),
	}
}

// Handle returns *errs.NotServiceableError when the policy rejects the address.
func (h ValidateAddressQueryHandler) Handle(
	ctx context.Context,
	query ValidateAddressQuery,
) (ValidateAddressQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return ValidateAddressQueryResponse{}, err
	}

	resp := ValidateAddressQueryResponse{Address: query.Address()}

	if resp.Address.Point() == nil && h.geocoder != nil {
		if geocoded, ok := h.geocode(ctx, resp.Address.Line(), resp.Address.City(), resp.Address.PostalCode()); ok {
			address, err := resp.Address.WithPoint(geocoded)
			if err != nil {
				return ValidateAddressQueryResponse{}, err
			}
			resp.Address = address
			resp.Geocoded = true
		}
	}

	if err := h.policy.Check(resp.Address.Point()); err != nil {
		return ValidateAddressQueryResponse{}, err
	}

	return resp, nil
}

func (h ValidateAddressQueryHandler) geocode(ctx context.Context, parts ...string) (kernel.GeoPoint, bool) {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	query := strings.Join(nonEmpty, ", ")

	callCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	point, err := h.geocoder.Geocode(callCtx, query)
	if err != nil {
		h.logger.WarnContext(ctx, "geocoding failed, checking address without coordinates",
			"query", query, "error", err)
		return kernel.GeoPoint{}, false
	}
	return point, true
}
