package catalog

import (
	"reflect"
	"testing"

	"github.com/hitoshi/dataregistry/internal/model"
)

func TestNewLocaleSelector(t *testing.T) {
	s := NewLocaleSelector("ES", "en", "es", " ru ", "")

	if got, want := s.Languages(), []string{"es", "en", "ru"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Languages() = %v, want %v", got, want)
	}
	if s.Default() != "es" {
		t.Errorf("Default() = %q, want %q", s.Default(), "es")
	}

	if got := NewLocaleSelector("").Default(); got != "en" {
		t.Errorf("empty default = %q, want en", got)
	}
}

func TestLocaleSelector_Resolve(t *testing.T) {
	s := NewLocaleSelector("en", "es", "ru")

	tests := []struct {
		in   string
		want string
	}{
		{"", "en"},
		{"es", "es"},
		{"es-MX", "es"},
		{"ru-RU,ru;q=0.9,en;q=0.8", "ru"},
		{"ja", "en"},
		{"en-GB", "en"},
	}

	for _, tt := range tests {
		if got := s.Resolve(tt.in); got != tt.want {
			t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocaleSelector_CountryField(t *testing.T) {
	s := NewLocaleSelector("en", "es", "ru")
	if got := s.CountryField("es"); got != "country_es" {
		t.Errorf("CountryField(es) = %q", got)
	}
	if got := s.CountryField("de"); got != "country_en" {
		t.Errorf("CountryField(de) = %q, want country_en", got)
	}
}

func TestLocaleSelector_CountryFunc(t *testing.T) {
	s := NewLocaleSelector("en", "es", "ru")
	rec := model.Collection{Country: map[string]string{"en": "Ukraine", "ru": "Украина"}}

	if got := s.CountryFunc("ru")(rec); got != "Украина" {
		t.Errorf("ru = %q", got)
	}
	if got := s.CountryFunc("es")(rec); got != "Ukraine" {
		t.Errorf("es fallback = %q, want Ukraine", got)
	}
	if got := s.CountryFunc("ru")(model.Collection{}); got != "" {
		t.Errorf("missing country = %q, want empty", got)
	}
}

// TestApply_CyrillicPrefix は非ASCIIの国名でも大文字小文字を区別しないことを検証する。
func TestApply_CyrillicPrefix(t *testing.T) {
	s := NewLocaleSelector("en", "ru")
	records := []model.Collection{{ID: 1, Country: map[string]string{"en": "Ukraine", "ru": "Украина"}}}

	got := Apply(records, Criteria{CountryPrefix: "укр"}, s.CountryFunc("ru"), testNow)
	if len(got) != 1 {
		t.Errorf("prefix укр did not match Украина")
	}
}
