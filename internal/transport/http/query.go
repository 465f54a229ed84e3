package http

import (
	"math"
	"net/url"
	"strings"

	"carviz/internal/catalog"
	apierrors "carviz/internal/errors"
	"carviz/pkg/contracts/domain"
)

// Query parameter names accepted by the options and export endpoints.
const (
	ParamType       = "type"
	ParamMake       = "make"
	ParamModel      = "model"
	ParamMSRPMin    = "msrp_min"
	ParamMSRPMax    = "msrp_max"
	ParamInvoiceMin = "invoice_min"
	ParamInvoiceMax = "invoice_max"
)

// ParseFilter reads a FilterSpec from query parameters.
//
// model may repeat. Omitting it selects every model, while a lone empty
// "model=" selects none. A range with only one bound is open on the other
// side.
func ParseFilter(q url.Values) (domain.FilterSpec, error) {
	spec := domain.FilterSpec{
		Type: strings.TrimSpace(q.Get(ParamType)),
		Make: strings.TrimSpace(q.Get(ParamMake)),
	}

	if values, ok := q[ParamModel]; ok {
		spec.Models = make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				spec.Models = append(spec.Models, v)
			}
		}
	}

	var err error
	if spec.MSRP, err = parseRange(q, ParamMSRPMin, ParamMSRPMax); err != nil {
		return domain.FilterSpec{}, err
	}
	if spec.Invoice, err = parseRange(q, ParamInvoiceMin, ParamInvoiceMax); err != nil {
		return domain.FilterSpec{}, err
	}
	return spec, nil
}

func parseRange(q url.Values, minKey, maxKey string) (*domain.Range, error) {
	minRaw, maxRaw := q.Get(minKey), q.Get(maxKey)
	if minRaw == "" && maxRaw == "" {
		return nil, nil
	}

	r := &domain.Range{Min: 0, Max: math.MaxInt64}
	if minRaw != "" {
		v, err := parseDollars(minKey, minRaw)
		if err != nil {
			return nil, err
		}
		r.Min = v
	}
	if maxRaw != "" {
		v, err := parseDollars(maxKey, maxRaw)
		if err != nil {
			return nil, err
		}
		r.Max = v
	}
	if r.Min > r.Max {
		return nil, apierrors.ErrValidation(minKey, "must not exceed "+maxKey)
	}
	return r, nil
}

// parseDollars accepts the same formats as the dataset: "20000", "20,000"
// or "$20,000".
func parseDollars(key, raw string) (int64, error) {
	v, err := catalog.NormalizePrice(raw)
	if err != nil {
		return 0, apierrors.ErrValidation(key, "must be a non-negative whole number of dollars")
	}
	return v, nil
}
