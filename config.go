package netkit

import (
	"errors"
	"fmt"
	"os"
	"time"

	json "github.com/goccy/go-json"
)

type (
	// policyFile is the top-level JSON structure.
	policyFile struct {
		Policies map[string]PolicyConfig `json:"policies"`
	}

	// PolicyConfig is the decoded configuration of one retry policy. Embed
	// it in your own config structs and call [BuildOptions] to obtain
	// options for [NewRetryPolicy]. Unset fields keep the defaults.
	PolicyConfig struct {
		// MaxRetries is the number of retries after the first attempt.
		// Example: 3.
		MaxRetries *int `json:"max_retries,omitempty"`
		// BaseDelay is parsed via time.ParseDuration. Example: "1s".
		BaseDelay *string `json:"base_delay,omitempty"`
		// Strategy is one of "constant", "linear", "exponential".
		Strategy *string `json:"strategy,omitempty"`
		// Increment is required by "linear". Example: "500ms".
		Increment *string `json:"increment,omitempty"`
		// Multiplier is required by "exponential". Example: 2.
		Multiplier *float64 `json:"multiplier,omitempty"`
		// MaxDelay caps every delay. Example: "30s".
		MaxDelay *string `json:"max_delay,omitempty"`
		// RetryableStatusCodes replaces the default set.
		RetryableStatusCodes []int `json:"retryable_status_codes,omitempty"`
	}
)

// Strategy names accepted in configuration.
const (
	StrategyConstant    = "constant"
	StrategyLinear      = "linear"
	StrategyExponential = "exponential"
)

var errNegative = errors.New("must not be negative")

// LoadConfig reads a JSON policy file and returns a [PolicyRegistry]
// holding the presets plus every policy in the file. A file entry may
// override a preset by name. All entries are validated before anything is
// registered.
//
//	{"policies": {"tmdb": {"max_retries": 4, "base_delay": "250ms",
//	  "strategy": "exponential", "multiplier": 2, "max_delay": "5s"}}}
func LoadConfig(path string) (*PolicyRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("netkit: read config: %w", err)
	}

	var file policyFile
	if err = json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("netkit: parse config: %w", err)
	}

	built := make(map[string]RetryPolicy, len(file.Policies))

	for name, pc := range file.Policies {
		opts, buildErr := BuildOptions(&pc)
		if buildErr != nil {
			return nil, fmt.Errorf("netkit: policy %q: %w", name, buildErr)
		}

		built[name] = NewRetryPolicy(opts...)
	}

	reg := NewPolicyRegistry()
	for name, p := range built {
		reg.Register(name, p)
	}

	return reg, nil
}

// BuildOptions converts pc into options for [NewRetryPolicy].
func BuildOptions(pc *PolicyConfig) ([]RetryPolicyOption, error) {
	var opts []RetryPolicyOption

	if pc.MaxRetries != nil {
		if *pc.MaxRetries < 0 {
			return nil, fmt.Errorf("max_retries: %w", errNegative)
		}

		opts = append(opts, WithMaxRetries(*pc.MaxRetries))
	}

	if pc.BaseDelay != nil {
		d, err := parseDelay("base_delay", *pc.BaseDelay)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithBaseDelay(d))
	}

	if pc.MaxDelay != nil {
		d, err := parseDelay("max_delay", *pc.MaxDelay)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithMaxDelay(d))
	}

	if pc.Strategy != nil {
		s, err := parseStrategy(pc)
		if err != nil {
			return nil, fmt.Errorf("strategy: %w", err)
		}

		opts = append(opts, WithStrategy(s))
	}

	if pc.RetryableStatusCodes != nil {
		for _, code := range pc.RetryableStatusCodes {
			if code < 100 || code > 599 {
				return nil, fmt.Errorf(
					"retryable_status_codes: invalid status %d",
					code,
				)
			}
		}

		opts = append(opts, WithRetryableStatusCodes(pc.RetryableStatusCodes...))
	}

	return opts, nil
}

func parseDelay(field, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}

	if d < 0 {
		return 0, fmt.Errorf("%s: %w", field, errNegative)
	}

	return d, nil
}

func parseStrategy(pc *PolicyConfig) (Strategy, error) {
	switch *pc.Strategy {
	case StrategyConstant:
		return ConstantBackoff(), nil
	case StrategyLinear:
		if pc.Increment == nil {
			return Strategy{}, errors.New("linear requires increment")
		}

		inc, err := parseDelay("increment", *pc.Increment)
		if err != nil {
			return Strategy{}, err
		}

		return LinearBackoff(inc), nil
	case StrategyExponential:
		if pc.Multiplier == nil {
			return Strategy{}, errors.New("exponential requires multiplier")
		}

		if *pc.Multiplier <= 0 {
			return Strategy{}, fmt.Errorf(
				"multiplier must be positive, got %v",
				*pc.Multiplier,
			)
		}

		return ExponentialBackoff(*pc.Multiplier), nil
	default:
		return Strategy{}, fmt.Errorf("unknown strategy: %q", *pc.Strategy)
	}
}
