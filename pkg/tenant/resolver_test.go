package tenant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_WithRootDomain(t *testing.T) {
	r := NewResolver("datastore.example.com")

	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "tenant subdomain", host: "acme.datastore.example.com", want: "acme"},
		{name: "tenant with port", host: "acme.datastore.example.com:8443", want: "acme"},
		{name: "mixed case", host: "Acme.Datastore.Example.Com", want: "acme"},
		{name: "apex domain", host: "datastore.example.com", want: ""},
		{name: "nested subdomain", host: "a.b.datastore.example.com", want: ""},
		{name: "foreign domain", host: "acme.other.com", want: ""},
		{name: "empty host", host: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.host))
		})
	}
}

func TestResolve_LabelCountFallback(t *testing.T) {
	r := NewResolver("")

	tests := []struct {
		name string
		host string
		want string
	}{
		{name: "three labels", host: "acme.example.com", want: "acme"},
		{name: "four labels", host: "acme.eu.example.com", want: "acme"},
		{name: "bare apex", host: "example.com", want: ""},
		{name: "single label", host: "localhost", want: ""},
		{name: "localhost with port", host: "localhost:3000", want: ""},
		{name: "leading dot", host: ".example.com", want: ""},
		{name: "empty host", host: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.host))
		})
	}
}
