package config

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

var ErrInvalidConfig = errors.New("config validation failed")

var validate = validator.New()

// Validate checks field constraints first, then the cross-field rules of the
// rarity table and pity policy. All problems are reported together.
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, fe.Namespace()+" fails "+fe.Tag())
			}
		} else {
			errs = append(errs, err.Error())
		}
	}

	if err := c.Rarity.Table().Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := c.Pity.Validate(); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Limits.MaxReturnResults > c.Limits.MaxSinglePull {
		errs = append(errs, "limits.max_return_results must be <= limits.max_single_pull")
	}
	if c.Tokens.PerDraw < 0 || c.Tokens.PerTenDraw < 0 {
		errs = append(errs, "tokens.per_draw and tokens.per_ten_draw must be >= 0")
	}

	if err := c.Shop.Validate(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return errors.Wrap(ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
