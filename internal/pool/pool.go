// Package pool is the entry point for describing types by name. It decodes
// array and primitive shorthand, consults its cache and, on a miss, locates
// and extracts the class file and wraps the tokens in a lazy description.
package pool

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"typepool/internal/cache"
	"typepool/internal/description"
	"typepool/internal/extractor"
	"typepool/internal/graph"
	"typepool/internal/locator"
)

var primitiveTypes = func() map[string]description.TypeDescription {
	m := make(map[string]description.TypeDescription)
	for _, p := range description.Primitives() {
		m[p.Name()] = p
	}
	return m
}()

// Array component shorthand; void is not a valid component.
var primitiveDescriptors = map[string]string{
	"Z": "boolean",
	"B": "byte",
	"S": "short",
	"C": "char",
	"I": "int",
	"J": "long",
	"F": "float",
	"D": "double",
}

// Pool describes types located by a locator.Locator. It is safe for
// concurrent use as long as its cache provider is.
type Pool struct {
	locator locator.Locator
	cache   cache.Provider
	logger  *zap.Logger
}

type Option func(*Pool)

// WithCache replaces the default unbounded cache.
func WithCache(c cache.Provider) Option {
	return func(p *Pool) { p.cache = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

func New(loc locator.Locator, opts ...Option) *Pool {
	p := &Pool{
		locator: loc,
		cache:   cache.NewSimple(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Describe returns the description of name. Array names use descriptor
// shorthand after the leading brackets: "[I", "[[Ljava.lang.String;".
func (p *Pool) Describe(name string) (description.TypeDescription, error) {
	if name == "" {
		return nil, &description.InvalidNameError{Name: name, Reason: "empty name"}
	}
	if strings.ContainsRune(name, '/') {
		return nil, &description.InvalidNameError{Name: name, Reason: "binary names use '.' rather than '/'"}
	}

	element := name
	arity := 0
	for strings.HasPrefix(element, "[") {
		arity++
		element = element[1:]
	}
	if arity > 0 {
		if primitive, ok := primitiveDescriptors[element]; ok {
			element = primitive
		} else if len(element) > 2 && strings.HasPrefix(element, "L") && strings.HasSuffix(element, ";") {
			element = element[1 : len(element)-1]
		} else {
			return nil, &description.InvalidNameError{Name: name, Reason: "malformed array component"}
		}
	}

	t, err := p.describeElement(element)
	if err != nil {
		return nil, err
	}
	return description.OfArray(p, t, arity), nil
}

func (p *Pool) describeElement(name string) (description.TypeDescription, error) {
	if t, ok := primitiveTypes[name]; ok {
		return t, nil
	}
	if t, ok := p.cache.Find(name); ok {
		return t, nil
	}
	t, err := p.doDescribe(name)
	if err != nil {
		return nil, err
	}
	return p.cache.Register(t), nil
}

func (p *Pool) doDescribe(name string) (description.TypeDescription, error) {
	p.logger.Debug("cache miss", zap.String("type", name))

	data, ok, err := p.locator.Locate(name)
	if err != nil {
		p.logger.Warn("locator failed", zap.String("type", name), zap.Error(err))
		return nil, fmt.Errorf("failed to locate %s: %w", name, err)
	}
	if !ok {
		p.logger.Debug("type not found", zap.String("type", name))
		return nil, &description.UnresolvedNameError{Name: name}
	}

	tok, err := extractor.Extract(data)
	if err != nil {
		var malformed *description.MalformedFormatError
		if errors.As(err, &malformed) && malformed.Name == "" {
			malformed.Name = name
		}
		p.logger.Debug("class file rejected", zap.String("type", name), zap.Error(err))
		return nil, err
	}
	if tok.Name != name {
		return nil, &description.MalformedFormatError{
			Name: name,
			Err:  fmt.Errorf("class file declares %s", tok.Name),
		}
	}
	return graph.NewLazyType(p, tok), nil
}

// Clear drops every cached description.
func (p *Pool) Clear() {
	p.cache.Clear()
}

// Cache exposes the provider, mainly for inspection.
func (p *Pool) Cache() cache.Provider { return p.cache }
