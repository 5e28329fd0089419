package gacha

import "github.com/cockroachdb/errors"

// PityMode selects how the top-tier probability grows past the soft pity.
type PityMode string

const (
	// ModePerDrawIncrement adds a fixed increase per pull past the soft pity.
	ModePerDrawIncrement PityMode = "per_draw_increment"
	// ModeTargetRamp eases the probability from base to Target at HardPity-1.
	ModeTargetRamp PityMode = "target_ramp"
)

// Easing specifies how the probability ramps up as we approach pity.
type Easing string

const (
	EaseLinear     Easing = "linear"
	EaseOutQuad    Easing = "easeOutQuad"
	EaseInOutCubic Easing = "easeInOutCubic"
)

var ErrPityConfig = errors.New("invalid pity config")

// PityPolicy is the escalating guarantee rule.
// Example: SoftPity=74, Increase=0.06, HardPity=90. The counter is measured
// before the pull about to be resolved, so counter 89 is always a top-tier hit.
type PityPolicy struct {
	Mode     PityMode `mapstructure:"mode" yaml:"mode"`
	SoftPity int      `mapstructure:"soft_pity" yaml:"soft_pity"`
	HardPity int      `mapstructure:"hard_pity" yaml:"hard_pity"`
	Increase float64  `mapstructure:"pity_increase" yaml:"pity_increase"` // for per_draw_increment
	Target   float64  `mapstructure:"target" yaml:"target"`               // for target_ramp
	Easing   Easing   `mapstructure:"easing" yaml:"easing"`               // for target_ramp
}

// DefaultPityPolicy is the reference rule: soft pity at 74, +6% per pull, hard pity at 90.
func DefaultPityPolicy() PityPolicy {
	return PityPolicy{
		Mode:     ModePerDrawIncrement,
		SoftPity: 74,
		HardPity: 90,
		Increase: 0.06,
		Easing:   EaseLinear,
	}
}

// Validate checks the policy and fills defaulted fields.
func (p *PityPolicy) Validate() error {
	if p.Mode == "" {
		p.Mode = ModePerDrawIncrement
	}
	if p.HardPity < 1 {
		return errors.Wrap(ErrPityConfig, "hard_pity must be >= 1")
	}
	if p.SoftPity < 0 || p.SoftPity >= p.HardPity {
		return errors.Wrap(ErrPityConfig, "soft_pity must satisfy 0 <= soft_pity < hard_pity")
	}
	switch p.Mode {
	case ModePerDrawIncrement:
		if p.Increase < 0 {
			return errors.Wrap(ErrPityConfig, "pity_increase must be >= 0")
		}
	case ModeTargetRamp:
		if p.Target <= 0 || p.Target > 1 {
			return errors.Wrap(ErrPityConfig, "target must be in (0,1]")
		}
		// ramp ends at (HardPity-1), need room to ramp
		if p.SoftPity >= p.HardPity-1 {
			return errors.Wrap(ErrPityConfig, "target_ramp needs soft_pity < hard_pity-1")
		}
		if p.Easing == "" {
			p.Easing = EaseLinear
		}
	default:
		return errors.Wrapf(ErrPityConfig, "unknown mode %q", p.Mode)
	}
	return nil
}

// EffectiveProbability computes the per_draw_increment rule:
// base, plus (counter-soft)*increase once counter >= soft, forced to 1 once
// counter >= hard-1, clamped to 1.
func EffectiveProbability(counter int, base float64, soft, hard int, increase float64) float64 {
	p := base
	if counter >= soft {
		p += float64(counter-soft) * increase
	}
	if counter >= hard-1 {
		p = 1.0
	}
	if p > 1.0 {
		p = 1.0
	}
	return p
}

// Effective returns the top-tier probability for the pull after counter misses.
func (p PityPolicy) Effective(counter int, base float64) float64 {
	if p.Mode != ModeTargetRamp {
		return EffectiveProbability(counter, base, p.SoftPity, p.HardPity, p.Increase)
	}

	// hard pity
	if counter >= p.HardPity-1 {
		return 1.0
	}
	if counter < p.SoftPity {
		return base
	}
	end := p.HardPity - 1
	// Example: SoftPity=74, end=89 → ramp over counters 74..89
	length := float64(end - p.SoftPity)
	if length <= 0 {
		return base
	}
	t := float64(counter-p.SoftPity) / length
	if t > 1 {
		t = 1
	}
	switch p.Easing {
	case EaseOutQuad:
		// f(t) = 1 - (1 - t)^2
		t = 1 - (1-t)*(1-t)
	case EaseInOutCubic:
		// accelerate then decelerate
		if t < 0.5 {
			t = 4 * t * t * t
		} else {
			t = 1 - (-2*t+2)*(-2*t+2)*(-2*t+2)/2
		}
	default:
		// linear
	}
	prob := base + (p.Target-base)*t
	if prob < 0 {
		prob = 0
	}
	if prob > 1 {
		prob = 1
	}
	return prob
}
