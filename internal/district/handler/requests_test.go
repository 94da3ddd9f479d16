package handler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "cityscope/pkg/domain-errors"
)

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name string
		req  any
		msg  string
	}{
		{name: "valid name", req: &ResolveRequest{Name: "Wola"}},
		{name: "blank name", req: &ResolveRequest{}, msg: "name is required"},
		{name: "long name", req: &ResolveRequest{Name: strings.Repeat("a", 201)}, msg: "name must be at most 200 characters"},
		{name: "valid address", req: &ResolveAddressRequest{Address: "Puławska 1"}},
		{name: "blank address", req: &ResolveAddressRequest{}, msg: "address is required"},
		{name: "known kind", req: &MetricsRequest{Kind: "life_balance"}},
		{name: "unknown kind", req: &MetricsRequest{Kind: "weather"}, msg: "kind must be one of social_life, district_rhythm"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRequest(tt.req)
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			de, ok := dErrors.As(err)
			if assert.True(t, ok) {
				assert.Equal(t, dErrors.CodeValidation, de.Code)
				assert.Contains(t, de.Message, tt.msg)
			}
		})
	}
}

func TestRequestNormalize(t *testing.T) {
	r := ResolveRequest{Name: "  Mokotów \n"}
	r.Normalize()
	assert.Equal(t, "Mokotów", r.Name)

	m := MetricsRequest{Kind: " SAFETY "}
	m.Normalize()
	assert.Equal(t, "safety", m.Kind)
}
