package host

import (
	hiera "github.com/goliatone/go-hiera-redis"
	"github.com/goliatone/go-hiera-redis/pkg/interpolate"
)

// Parser expands %{...} tokens in every string of an answer.
type Parser struct {
	interp *interpolate.Interpolator
}

func NewParser(interp *interpolate.Interpolator) *Parser {
	if interp == nil {
		interp = interpolate.New()
	}
	return &Parser{interp: interp}
}

func (p *Parser) ParseAnswer(raw any, scope hiera.Scope, ctx hiera.LookupContext) (any, error) {
	return p.interp.Value(raw, interpolate.RuleContext{Scope: scope, Context: ctx})
}
