package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpecification_Validate(t *testing.T) {
	tests := []struct {
		name   string
		spec   Specification
		fields []string
	}{
		{"valid", Specification{Title: "Platform", Version: "1.0"}, nil},
		{"missing title", Specification{Version: "1.0"}, []string{"title"}},
		{"missing both", Specification{Title: "  "}, []string{"title", "version"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var got []string
			for _, fe := range FieldErrors(err) {
				got = append(got, fe.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestVerb_Validate(t *testing.T) {
	v := &Verb{PathID: 1, Method: "GET", Name: "List", Visibility: "Basic"}
	assert.NoError(t, v.Validate())

	v.Visibility = ""
	err := v.Validate()
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Equal(t, "visibility", FieldErrors(err)[0].Field)
}

func TestValidateProperties(t *testing.T) {
	t.Run("unique names pass", func(t *testing.T) {
		err := ValidateProperties([]*Property{
			{Name: "id", Type: "string"},
			{Name: "count", Type: "integer"},
		})
		assert.NoError(t, err)
	})

	t.Run("duplicate names rejected", func(t *testing.T) {
		err := ValidateProperties([]*Property{
			{Name: "id", Type: "string"},
			{Name: "id", Type: "integer"},
		})
		require.Error(t, err)
		fes := FieldErrors(err)
		require.Len(t, fes, 1)
		assert.Equal(t, "rows[1].name", fes[0].Field)
		assert.Contains(t, fes[0].Message, "duplicates rows[0]")
	})

	t.Run("missing fields", func(t *testing.T) {
		err := ValidateProperties([]*Property{{Name: ""}, {Name: "x"}})
		fes := FieldErrors(err)
		require.Len(t, fes, 2)
		assert.Equal(t, "rows[0].name", fes[0].Field)
		assert.Equal(t, "rows[1].type", fes[1].Field)
	})
}

func TestSentinelWrapping(t *testing.T) {
	err := NotFoundf("verb %d", 7)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "verb 7: not found", err.Error())

	err = fmt.Errorf("create path: %w", Conflictf("path %q", "/a"))
	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, IsValidation(err))
}

func TestPropertyKind(t *testing.T) {
	assert.Equal(t, ParentVerb, KindQueryParameter.Parent())
	assert.Equal(t, ParentSpecification, KindPathParameter.Parent())
	assert.Equal(t, ParentModel, KindModelProperty.Parent())
	assert.True(t, KindResponseBody.Valid())
	assert.False(t, PropertyKind("header").Valid())
}

func TestSpecification_DisplayName(t *testing.T) {
	s := &Specification{Title: "Platform", Version: "1.0"}
	assert.Equal(t, "Platform 1.0", s.DisplayName())
}
