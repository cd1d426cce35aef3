package video_fetch

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/alanbriolat/video-fetch/generic"
)

var (
	ErrDuplicateProvider = errors.New("duplicate provider name")
	ErrInvalidProvider   = errors.New("invalid provider")
	ErrNoMatch           = errors.New("no provider matched the input")
	ErrUnknownProvider   = errors.New("unknown provider")
)

var (
	PriorityHighest int16 = math.MinInt16
	PriorityDefault int16 = 0
	PriorityLowest  int16 = math.MaxInt16
)

type MatchFunc = func(string) (Source, error)

// A Provider matches any URL it knows how to handle, giving a Source that can be resolved to a direct URL.
type Provider struct {
	Name  string
	Match MatchFunc
	// Priority of the matcher, lower (including negative) means matching earlier.
	Priority int16
}

// A Match is the result of a Provider successfully matching a URL.
type Match struct {
	ProviderName string
	Source       Source
}

// A ProviderRegistry is a collection of Provider instances which can be used to try to match URLs.
type ProviderRegistry struct {
	providers   []*Provider
	providerMap map[string]*Provider
}

// Add registers a Provider with the ProviderRegistry. Provider.Name and Provider.Match must be set, and
// Provider.Name must be unique within the ProviderRegistry.
func (r *ProviderRegistry) Add(p Provider) error {
	if r.providerMap == nil {
		r.providerMap = make(map[string]*Provider)
	}
	if p.Name == "" || p.Match == nil {
		return ErrInvalidProvider
	}
	if _, ok := r.providerMap[p.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProvider, p.Name)
	}
	r.providerMap[p.Name] = &p
	r.providers = append(r.providers, r.providerMap[p.Name])
	r.sortByPriority()
	return nil
}

// List returns the names of registered providers in priority order.
func (r *ProviderRegistry) List() []string {
	names := make([]string, 0, len(r.providers))
	for _, p := range r.providers {
		names = append(names, p.Name)
	}
	return names
}

// Match a string against each Provider in priority order. If none match, the error wraps ErrNoMatch and describes
// why each Provider rejected the input.
func (r *ProviderRegistry) Match(s string) (*Match, error) {
	var result *multierror.Error
	for _, p := range r.providers {
		source, err := p.Match(s)
		if source != nil && err == nil {
			return &Match{ProviderName: p.Name, Source: source}, nil
		}
		if err == nil {
			err = ErrNoMatch
		}
		result = multierror.Append(result, multierror.Prefix(err, fmt.Sprintf("[%v]", p.Name)))
	}
	if result == nil {
		return nil, ErrNoMatch
	}
	result.ErrorFormat = joinErrors
	return nil, fmt.Errorf("%w: %v", ErrNoMatch, result)
}

// MatchWith will attempt to match a string against a specific provider.
func (r *ProviderRegistry) MatchWith(name string, s string) (*Match, error) {
	p, ok := r.providerMap[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	source, err := p.Match(s)
	if source != nil && err == nil {
		return &Match{ProviderName: p.Name, Source: source}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: [%s] %v", ErrNoMatch, p.Name, err)
	}
	return nil, ErrNoMatch
}

// MustAdd wraps Add but panics if there is an error.
func (r *ProviderRegistry) MustAdd(p Provider) {
	generic.Unwrap_(r.Add(p))
}

func (r *ProviderRegistry) sortByPriority() {
	sort.SliceStable(r.providers, func(i, j int) bool {
		return r.providers[i].Priority < r.providers[j].Priority
	})
}

func joinErrors(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, err.Error())
	}
	return strings.Join(parts, "; ")
}
