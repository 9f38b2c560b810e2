package device

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"doorstep/internal/domain"
)

type modelSource interface {
	ListDeviceModels(ctx context.Context, deviceType, brand string) ([]domain.DeviceModel, error)
}

// defaultQualifiers are trailing tokens that name a distinct SKU rather than
// a storage size or colour. A prefix match followed by one of these, or by any
// token ending in "+", is rejected. Deployments add their own tokens through
// DEVICE_VARIANT_QUALIFIERS.
var defaultQualifiers = map[string]bool{
	"pro": true, "max": true, "plus": true, "ultra": true, "mini": true,
	"lite": true, "fe": true, "air": true, "se": true, "xl": true,
	"fold": true, "flip": true, "edge": true, "note": true,
}

type Resolver struct {
	models     modelSource
	qualifiers map[string]bool
}

// NewResolver builds a resolver over models. extraQualifiers extend the
// built-in variant tokens.
func NewResolver(models modelSource, extraQualifiers ...string) *Resolver {
	q := make(map[string]bool, len(defaultQualifiers)+len(extraQualifiers))
	for k := range defaultQualifiers {
		q[k] = true
	}
	for _, k := range extraQualifiers {
		if k = normalize(k); k != "" {
			q[k] = true
		}
	}
	return &Resolver{models: models, qualifiers: q}
}

type candidate struct {
	model domain.DeviceModel
	norm  string
}

// Resolve maps a free-form model string to a canonical device model of the
// given type and brand. A candidate matches when its name equals the query, or
// when it is a whole-word prefix of the query and no longer candidate matches.
func (r *Resolver) Resolve(ctx context.Context, deviceType, brand, rawModel string) (*domain.DeviceModel, error) {
	query := stripBrand(normalize(rawModel), normalize(brand))
	if query == "" {
		return nil, ErrNotFound
	}

	models, err := r.models.ListDeviceModels(ctx, deviceType, brand)
	if err != nil {
		return nil, fmt.Errorf("list device models: %w", err)
	}

	cands := make([]candidate, 0, len(models))
	for _, m := range models {
		n := stripBrand(normalize(m.Name), normalize(brand))
		if n == "" {
			continue
		}
		cands = append(cands, candidate{model: m, norm: n})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if len(cands[i].norm) != len(cands[j].norm) {
			return len(cands[i].norm) > len(cands[j].norm)
		}
		return cands[i].norm < cands[j].norm
	})

	idx := -1
	for i, c := range cands {
		if c.norm == query {
			idx = i
			break
		}
	}
	if idx < 0 {
		for i, c := range cands {
			if !isWholeWordPrefix(c.norm, query) {
				continue
			}
			if r.namesVariant(strings.TrimPrefix(query, c.norm+" ")) {
				continue
			}
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrNotFound
	}

	match := cands[idx].model
	match.Siblings = siblingsOf(cands, idx)
	return &match, nil
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func stripBrand(name, brand string) string {
	if brand != "" && strings.HasPrefix(name, brand+" ") {
		return strings.TrimPrefix(name, brand+" ")
	}
	return name
}

func isWholeWordPrefix(prefix, s string) bool {
	return strings.HasPrefix(s, prefix+" ")
}

func (r *Resolver) namesVariant(rest string) bool {
	tokens := strings.Fields(rest)
	if len(tokens) == 0 {
		return false
	}
	if r.qualifiers[tokens[0]] {
		return true
	}
	for _, t := range tokens {
		if len(t) > 1 && strings.HasSuffix(t, "+") {
			return true
		}
	}
	return false
}

func siblingsOf(cands []candidate, idx int) []string {
	self := cands[idx].norm
	var out []string
	for i, c := range cands {
		if i == idx {
			continue
		}
		if isWholeWordPrefix(c.norm, self) || isWholeWordPrefix(self, c.norm) {
			out = append(out, c.model.Name)
		}
	}
	sort.Strings(out)
	return out
}
