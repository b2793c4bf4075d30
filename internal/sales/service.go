package sales

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Payload keys of a sale submission.
const (
	FieldDate     = "fecha"
	FieldClient   = "cliente"
	FieldFamily   = "familia"
	FieldSpecies  = "especie"
	FieldQuantity = "cantidad"
	FieldPrice    = "precio"
	FieldTotal    = "total"
	FieldNotes    = "notas"
)

var requiredFields = []string{FieldDate, FieldClient, FieldSpecies, FieldQuantity, FieldPrice, FieldTotal}

// Service provides sale intake and reporting on a Storage backend.
type Service struct {
	storage     Storage
	logger      *zap.Logger
	verifyTotal bool
}

// Option customizes a Service.
type Option func(*Service)

// WithTotalCheck makes RecordSale reject sales whose total is not
// quantity * price rounded to cents.
func WithTotalCheck(enabled bool) Option {
	return func(s *Service) {
		s.verifyTotal = enabled
	}
}

// NewService creates a new Service.
func NewService(storage Storage, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		storage: storage,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordSale validates a decoded submission and persists it as a new Sale.
//
// Missing required keys yield ErrMissingFields before the store is touched.
// Values that cannot be coerced yield an error wrapping ErrCoercion. The
// total is stored as supplied unless the total check is enabled.
func (s *Service) RecordSale(ctx context.Context, payload map[string]any) (*Sale, error) {
	if missing := missingFields(payload); len(missing) > 0 {
		s.logger.Warn("sale submission rejected", zap.Strings("missing_fields", missing))
		return nil, ErrMissingFields
	}

	sale, err := parseSale(payload)
	if err != nil {
		return nil, err
	}

	if s.verifyTotal {
		if err := checkTotal(sale); err != nil {
			s.logger.Warn("sale total rejected",
				zap.Float64("quantity", sale.Quantity),
				zap.Float64("unit_price", sale.UnitPrice),
				zap.Float64("total", sale.Total),
			)
			return nil, err
		}
	}

	if err := s.storage.Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to save sale: %w", err)
	}

	s.logger.Info("sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.String("client", sale.Client),
		zap.String("species", sale.Species),
	)
	return sale, nil
}

// Report returns every sale in its external form, most recent first.
func (s *Service) Report(ctx context.Context) ([]SaleView, error) {
	all, err := s.storage.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	views := make([]SaleView, 0, len(all))
	for _, sale := range all {
		views = append(views, sale.View())
	}

	s.logger.Debug("sales report built", zap.Int("results_count", len(views)))
	return views, nil
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

func missingFields(payload map[string]any) []string {
	var missing []string
	for _, k := range requiredFields {
		if _, ok := payload[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

func parseSale(payload map[string]any) (*Sale, error) {
	rawDate, err := toString(payload, FieldDate)
	if err != nil {
		return nil, err
	}
	date, err := time.Parse(DateLayout, rawDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCoercion, FieldDate, err)
	}

	sale := &Sale{Date: date}
	if sale.Client, err = toString(payload, FieldClient); err != nil {
		return nil, err
	}
	if sale.Species, err = toString(payload, FieldSpecies); err != nil {
		return nil, err
	}
	if sale.Quantity, err = toFloat(payload, FieldQuantity); err != nil {
		return nil, err
	}
	if sale.UnitPrice, err = toFloat(payload, FieldPrice); err != nil {
		return nil, err
	}
	if sale.Total, err = toFloat(payload, FieldTotal); err != nil {
		return nil, err
	}
	if sale.Family, err = toOptionalString(payload, FieldFamily); err != nil {
		return nil, err
	}
	if sale.Notes, err = toOptionalString(payload, FieldNotes); err != nil {
		return nil, err
	}
	return sale, nil
}

func toString(payload map[string]any, key string) (string, error) {
	v, ok := payload[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s has type %T, want string", ErrCoercion, key, payload[key])
	}
	return v, nil
}

func toOptionalString(payload map[string]any, key string) (*string, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s has type %T, want string", ErrCoercion, key, raw)
	}
	return &v, nil
}

// toFloat accepts JSON numbers and numeric strings. Non-finite values are
// rejected since they cannot be rendered back as JSON.
func toFloat(payload map[string]any, key string) (float64, error) {
	var f float64
	switch v := payload[key].(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrCoercion, key, err)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("%w: %s has type %T, want number", ErrCoercion, key, v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s is not a finite number", ErrCoercion, key)
	}
	return f, nil
}

func checkTotal(sale *Sale) error {
	expected := decimal.NewFromFloat(sale.Quantity).
		Mul(decimal.NewFromFloat(sale.UnitPrice)).
		Round(2)
	got := decimal.NewFromFloat(sale.Total).Round(2)
	if !expected.Equal(got) {
		return fmt.Errorf("%w: expected %s, got %s", ErrTotalMismatch, expected, got)
	}
	return nil
}
