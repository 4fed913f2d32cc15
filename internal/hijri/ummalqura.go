package hijri

import (
	"fmt"
	"time"

	gohijri "github.com/hablullah/go-hijri"
)

// UmmAlQuraConverter implements Converter using the bundled Umm al-Qura
// lookup tables (no network access). The tables cover 1937-2077 CE;
// dates outside that range fail with ErrConversionUnavailable.
type UmmAlQuraConverter struct{}

// NewUmmAlQuraConverter creates a new UmmAlQuraConverter
func NewUmmAlQuraConverter() *UmmAlQuraConverter {
	return &UmmAlQuraConverter{}
}

// ToHijri converts the given Gregorian date to a Hijri date
func (c *UmmAlQuraConverter) ToHijri(date time.Time) (Date, error) {
	uq, err := gohijri.CreateUmmAlQuraDate(date)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %s: %v",
			ErrConversionUnavailable, date.Format("2006-01-02"), err)
	}

	return Date{
		Year:  int(uq.Year),
		Month: int(uq.Month),
		Day:   int(uq.Day),
	}, nil
}
