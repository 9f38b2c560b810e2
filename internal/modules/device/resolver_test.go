package device

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"doorstep/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockModelSource struct{ mock.Mock }

func (m *MockModelSource) ListDeviceModels(ctx context.Context, deviceType, brand string) ([]domain.DeviceModel, error) {
	args := m.Called(ctx, deviceType, brand)
	if v := args.Get(0); v != nil {
		return v.([]domain.DeviceModel), args.Error(1)
	}
	return nil, args.Error(1)
}

type staticSource []domain.DeviceModel

func (s staticSource) ListDeviceModels(context.Context, string, string) ([]domain.DeviceModel, error) {
	return s, nil
}

func catalog(names ...string) staticSource {
	out := make(staticSource, 0, len(names))
	for i, n := range names {
		out = append(out, domain.DeviceModel{ID: int64(i + 1), DeviceType: "mobile", Brand: "Apple", Name: n, IsActive: true})
	}
	return out
}

func TestResolve_ExactSiblings(t *testing.T) {
	r := NewResolver(catalog("iPhone 17", "iPhone 17 Pro", "iPhone 17 Pro Max"))

	for _, name := range []string{"iPhone 17", "iPhone 17 Pro", "iPhone 17 Pro Max"} {
		got, err := r.Resolve(context.Background(), "mobile", "Apple", name)
		require.NoError(t, err, name)
		assert.Equal(t, name, got.Name)
	}
}

func TestResolve_SiblingsListed(t *testing.T) {
	r := NewResolver(catalog("iPhone 17", "iPhone 17 Pro", "iPhone 17 Pro Max", "iPhone 16"))

	got, err := r.Resolve(context.Background(), "mobile", "Apple", "iPhone 17 Pro")
	require.NoError(t, err)
	assert.Equal(t, []string{"iPhone 17", "iPhone 17 Pro Max"}, got.Siblings)
}

func TestResolve_NormalizesCaseSpacingAndBrand(t *testing.T) {
	r := NewResolver(catalog("iPhone 17", "iPhone 17 Pro"))

	got, err := r.Resolve(context.Background(), "mobile", "apple", "  apple   IPHONE 17   pro ")
	require.NoError(t, err)
	assert.Equal(t, "iPhone 17 Pro", got.Name)
}

func TestResolve_TrailingDetailUsesLongestPrefix(t *testing.T) {
	r := NewResolver(catalog("iPhone 17", "iPhone 17 Pro"))

	got, err := r.Resolve(context.Background(), "mobile", "Apple", "iPhone 17 Pro 256GB")
	require.NoError(t, err)
	assert.Equal(t, "iPhone 17 Pro", got.Name)

	got, err = r.Resolve(context.Background(), "mobile", "Apple", "iPhone 17 256GB Blue")
	require.NoError(t, err)
	assert.Equal(t, "iPhone 17", got.Name)
}

func TestResolve_NeverCrossMatchesMissingVariant(t *testing.T) {
	cases := []struct {
		name    string
		catalog staticSource
		query   string
	}{
		{"base query, only pro stocked", catalog("iPhone 17 Pro"), "iPhone 17"},
		{"pro query, only base stocked", catalog("iPhone 17"), "iPhone 17 Pro"},
		{"pro max query, base and pro stocked", catalog("iPhone 17", "iPhone 17 Pro"), "iPhone 17 Pro Max"},
		{"partial token", catalog("iPhone 17"), "iPhone 1"},
		{"glued token", catalog("iPhone 1"), "iPhone 17"},
		{"plus-suffixed variant, only pro stocked", catalog("Redmi Note 12 Pro"), "Redmi Note 12 Pro+"},
		{"plus-suffixed variant, only base stocked", catalog("Redmi Note 12"), "Redmi Note 12 Pro+ 256GB"},
		{"qualified variant with trailing detail", catalog("Galaxy S23"), "Galaxy S23 Ultra 5G"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewResolver(tc.catalog).Resolve(context.Background(), "mobile", "Apple", tc.query)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResolve_ExtraQualifiers(t *testing.T) {
	base := catalog("Pixel 8")

	got, err := NewResolver(base).Resolve(context.Background(), "mobile", "Google", "Pixel 8 Neo")
	require.NoError(t, err)
	assert.Equal(t, "Pixel 8", got.Name)

	_, err = NewResolver(base, " NEO ").Resolve(context.Background(), "mobile", "Google", "Pixel 8 Neo")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err = NewResolver(catalog("Redmi Note 12 Pro+")).Resolve(context.Background(), "mobile", "Xiaomi", "redmi note 12 pro+")
	require.NoError(t, err)
	assert.Equal(t, "Redmi Note 12 Pro+", got.Name)
}

// Every subset of a sibling family is stocked in turn; a query for any family
// member resolves to itself when stocked and to nothing otherwise.
func TestResolve_SiblingFamilyProperty(t *testing.T) {
	families := [][]string{
		{"iPhone 17", "iPhone 17 Pro", "iPhone 17 Pro Max", "iPhone 17 Plus"},
		{"Galaxy S23", "Galaxy S23 FE", "Galaxy S23 Ultra", "Galaxy S23 Plus"},
		{"iPad Air", "iPad Air Pro", "iPad"},
	}
	for _, family := range families {
		for mask := 1; mask < 1<<len(family); mask++ {
			var stocked []string
			for i, n := range family {
				if mask&(1<<i) != 0 {
					stocked = append(stocked, n)
				}
			}
			r := NewResolver(catalog(stocked...))
			for _, query := range family {
				got, err := r.Resolve(context.Background(), "mobile", "Apple", query)
				label := fmt.Sprintf("stocked=%v query=%q", stocked, query)
				if contains(stocked, query) {
					require.NoError(t, err, label)
					assert.Equal(t, query, got.Name, label)
					continue
				}
				if err == nil {
					assert.Fail(t, "cross-matched sibling", "%s resolved to %q", label, got.Name)
				}
			}
		}
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}

func TestResolve_SourceError(t *testing.T) {
	src := new(MockModelSource)
	src.On("ListDeviceModels", mock.Anything, "mobile", "Apple").Return(nil, errors.New("connection refused"))

	_, err := NewResolver(src).Resolve(context.Background(), "mobile", "Apple", "iPhone 17")

	assert.ErrorContains(t, err, "connection refused")
	assert.NotErrorIs(t, err, ErrNotFound)
	src.AssertExpectations(t)
}

func TestResolve_EmptyQuery(t *testing.T) {
	_, err := NewResolver(catalog("iPhone 17")).Resolve(context.Background(), "mobile", "Apple", "   ")
	assert.ErrorIs(t, err, ErrNotFound)
}
