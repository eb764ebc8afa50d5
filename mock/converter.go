package mock

import "github.com/fwojciec/estate"

var _ estate.Converter = (*Converter)(nil)

// Converter is a mock implementation of estate.Converter.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	return c.ConvertFn(html)
}
