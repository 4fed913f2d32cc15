package hijri

import (
	"time"

	"go.uber.org/zap"
)

// CompositeConverter implements Converter with fallback strategy
// Primary: AladhanConverter (API)
// Fallback: UmmAlQuraConverter (bundled tables)
type CompositeConverter struct {
	primary  Converter
	fallback Converter
	logger   *zap.Logger
}

// NewCompositeConverter creates a new CompositeConverter
func NewCompositeConverter(primary, fallback Converter, logger *zap.Logger) *CompositeConverter {
	return &CompositeConverter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// ToHijri converts the given Gregorian date to a Hijri date
func (cc *CompositeConverter) ToHijri(date time.Time) (Date, error) {
	hijriDate, err := cc.primary.ToHijri(date)
	if err == nil {
		return hijriDate, nil
	}

	cc.logger.Warn("Primary converter failed, falling back to bundled tables",
		zap.String("date", date.Format("2006-01-02")),
		zap.Error(err))

	return cc.fallback.ToHijri(date)
}
