package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectionName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple", input: "TechCorp", expected: "org_techcorp"},
		{name: "spaces", input: "Tech Corp", expected: "org_tech_corp"},
		{name: "hyphens", input: "tech-corp", expected: "org_tech_corp"},
		{name: "underscores kept", input: "tech_corp", expected: "org_tech_corp"},
		{name: "trimmed", input: "  Acme  ", expected: "org_acme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, CollectionName(tt.input))
		})
	}
}

func TestOrganizationUpdate_Empty(t *testing.T) {
	require.True(t, OrganizationUpdate{}.Empty())

	email := "admin@example.com"
	require.False(t, OrganizationUpdate{AdminEmail: &email}.Empty())
}
