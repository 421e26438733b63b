package messages

import (
	_ "embed"
	"math/rand/v2"
	"os"
	"strings"

	"quotebot/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/samber/do"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var defaultPools []byte

// Pools are the canned replies the bot picks from.
type Pools struct {
	Welcome   string   `yaml:"welcome" validate:"required"`
	Throttled []string `yaml:"throttled" validate:"required,min=1"`
	Exhausted []string `yaml:"exhausted" validate:"required,min=1"`
	Filler    []string `yaml:"filler" validate:"required,min=1"`
}

type Service struct {
	pools Pools
	rand  *rand.Rand
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	pools, err := Load(cfg.Messages.File)
	if err != nil {
		return nil, err
	}

	return NewService(pools, do.MustInvoke[*rand.Rand](di)), nil
}

func NewService(pools Pools, rng *rand.Rand) *Service {
	return &Service{
		pools: pools,
		rand:  rng,
	}
}

// Load returns the built-in pools, with any field set in the YAML file at path
// replacing its built-in counterpart. An empty path means built-ins only.
func Load(path string) (Pools, error) {
	var pools Pools
	if err := yaml.Unmarshal(defaultPools, &pools); err != nil {
		return Pools{}, oops.In("messages").Wrapf(err, "failed to parse built-in messages")
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Pools{}, oops.In("messages").With("path", path).Wrapf(err, "failed to read messages file")
		}

		var override Pools
		if err = yaml.Unmarshal(data, &override); err != nil {
			return Pools{}, oops.In("messages").With("path", path).Wrapf(err, "failed to parse messages file")
		}

		pools = merge(pools, override)
	}

	pools.Throttled = clean(pools.Throttled)
	pools.Exhausted = clean(pools.Exhausted)
	pools.Filler = clean(pools.Filler)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(pools); err != nil {
		return Pools{}, oops.In("messages").With("path", path).Wrapf(err, "failed to validate messages")
	}

	return pools, nil
}

func merge(base, override Pools) Pools {
	if override.Welcome != "" {
		base.Welcome = override.Welcome
	}
	if override.Throttled != nil {
		base.Throttled = override.Throttled
	}
	if override.Exhausted != nil {
		base.Exhausted = override.Exhausted
	}
	if override.Filler != nil {
		base.Filler = override.Filler
	}

	return base
}

func clean(lines []string) []string {
	return pie.Filter(pie.Map(lines, strings.TrimSpace), func(line string) bool {
		return line != ""
	})
}

func (s *Service) Welcome() string {
	return s.pools.Welcome
}

func (s *Service) Throttled() string {
	return s.pick(s.pools.Throttled)
}

func (s *Service) Exhausted() string {
	return s.pick(s.pools.Exhausted)
}

func (s *Service) Filler() string {
	return s.pick(s.pools.Filler)
}

func (s *Service) pick(pool []string) string {
	return pool[s.rand.IntN(len(pool))]
}
