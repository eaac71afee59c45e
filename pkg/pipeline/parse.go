package pipeline

import (
	"github.com/matzehuels/exorcism/pkg/cache"
	"github.com/matzehuels/exorcism/pkg/cover"
	"github.com/matzehuels/exorcism/pkg/errors"
)

// Parse decodes and validates the input of opts. It also returns the
// canonical PLA text of the cover, which is what cache keys are derived
// from, so the same cover submitted as PLA or JSON shares cache entries.
func Parse(opts Options) (*cover.Cover, []byte, error) {
	c := opts.Cover
	if c == nil {
		var err error
		c, err = cover.Decode(opts.Input, opts.InputFormat)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing cover")
		}
	}
	if err := c.Validate(); err != nil {
		return nil, nil, err
	}
	canonical, err := cover.Encode(c, "pla")
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "encoding cover")
	}
	return c, canonical, nil
}

func canonicalHash(c *cover.Cover) (string, error) {
	data, err := cover.Encode(c, "pla")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "encoding cover")
	}
	return cache.Hash(data), nil
}
