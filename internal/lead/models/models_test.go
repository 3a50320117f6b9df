package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "leadgate/pkg/domain-errors"
)

func TestConvertDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{"15-03-2024", "2024-03-15", true},
		{"15/03/2024", "2024-03-15", true},
		{" 01/12/1990 ", "1990-12-01", true},
		{"29/02/2024", "2024-02-29", true},
		{"not-a-date", "", false},
		{"", "", false},
		{"2024/03/15", "", false},
		{"15.03.2024", "", false},
		{"1-3-2024", "", false},
		{"31/02/2024", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ConvertDate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProduct(t *testing.T) {
	for _, p := range Products {
		got, ok := ParseProduct(string(p))
		assert.True(t, ok, p)
		assert.Equal(t, p, got)
	}

	got, ok := ParseProduct(" Jet-Ski ")
	assert.True(t, ok)
	assert.Equal(t, ProductPlaisance, got)

	_, ok = ParseProduct("sante")
	assert.False(t, ok)
}

func TestCollectionPaths(t *testing.T) {
	assert.Equal(t, []string{"/api/auto-leads", "/api/auto-lead", "/api/leads-auto"}, ProductAuto.CollectionPaths())
	assert.Equal(t, []string{"/api/carte-verte-leads"}, ProductCarteVerte.CollectionPaths())
}

func TestAutoMapping(t *testing.T) {
	form := &AutoForm{
		Contact:               Contact{Prenom: "Awa", Nom: "Diallo", Telephone: "0612345678"},
		Consent:               Consent{TermsAccepted: true},
		TypeDeVoiture:         "Nouvel Achat",
		Carburant:             "Hybride",
		DateMiseEnCirculation: "01/06/2023",
		DateNaissance:         "n'importe quoi",
		Garanties:             []string{"Vol", "Bris de glace", "Option maison"},
	}

	m := NewMapper(false)
	payload := form.Canonical(m).(AutoPayload)
	require.NoError(t, m.Err())
	assert.Equal(t, []string{"dateNaissance", "garanties"}, m.Unmapped())

	assert.Equal(t, "nouvel_achat", payload.TypeAchat)
	assert.Equal(t, "hybride", payload.TypeCarburant)
	require.NotNil(t, payload.DateMiseEnCirculation)
	assert.Equal(t, "2023-06-01", *payload.DateMiseEnCirculation)
	assert.Nil(t, payload.DateNaissance)
	assert.Nil(t, payload.DatePermis)
	assert.Equal(t, []string{"vol", "bris_de_glace", "Option maison"}, payload.Garanties)
	assert.True(t, payload.TermsAccepted)
}

func TestMotoMapping(t *testing.T) {
	form := &MotoForm{TypeDeMoto: "125cc ou plus"}
	payload := form.Canonical(NewMapper(false)).(MotoPayload)
	assert.Equal(t, "plus_125cc", payload.TypeMoto)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"typeMoto":"plus_125cc"`)
	assert.Contains(t, string(raw), `"dateNaissance":null`)
}

func TestLabelLookupIgnoresCase(t *testing.T) {
	m := NewMapper(true)
	assert.Equal(t, "electrique", m.Label(Carburant, "électrique"))
	assert.Equal(t, "diesel", m.Label(Carburant, " DIESEL "))
	assert.NoError(t, m.Err())
}

func TestStrictMapper(t *testing.T) {
	m := NewMapper(true)

	assert.Equal(t, "Hydrogène", m.Label(Carburant, "Hydrogène"))
	assert.Nil(t, m.Date("datePermis", "32/13/2020"))
	assert.Empty(t, m.Label(Carburant, ""))
	assert.Nil(t, m.Date("dateNaissance", ""))
	m.Label(Carburant, "Kérosène")

	err := m.Err()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Equal(t, []string{"carburant", "datePermis"}, m.Unmapped())
}

func TestDecodeForm(t *testing.T) {
	t.Run("decodes the product model", func(t *testing.T) {
		form, err := DecodeForm(ProductMoto, json.RawMessage(`{"prenom":"Awa","Typedemoto":"Scooter","termsAccepted":true}`))
		require.NoError(t, err)
		moto, ok := form.(*MotoForm)
		require.True(t, ok)
		assert.Equal(t, "Scooter", moto.TypeDeMoto)
		assert.Equal(t, "Awa", moto.Identity().Prenom)
		assert.True(t, moto.TermsAccepted)
	})

	t.Run("missing data", func(t *testing.T) {
		_, err := DecodeForm(ProductAuto, json.RawMessage(`null`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("malformed data", func(t *testing.T) {
		_, err := DecodeForm(ProductAuto, json.RawMessage(`{"prenom":42}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := DecodeForm(Product("sante"), json.RawMessage(`{}`))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestValidateForm(t *testing.T) {
	valid := func() *AutoForm {
		return &AutoForm{
			Contact:       Contact{Prenom: "Awa", Nom: "Diallo", Telephone: "06 12 34 56 78"},
			Consent:       Consent{TermsAccepted: true},
			TypeDeVoiture: "Nouvel Achat",
			Carburant:     "Diesel",
		}
	}

	assert.NoError(t, ValidateForm(valid()))

	noTerms := valid()
	noTerms.TermsAccepted = false
	err := ValidateForm(noTerms)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conditions générales")

	noName := valid()
	noName.Prenom = "  "
	err = ValidateForm(noName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prenom")

	badEmail := valid()
	badEmail.Email = "pas-un-email"
	assert.Error(t, ValidateForm(badEmail))

	tooMany := valid()
	for i := range 11 {
		tooMany.Garanties = append(tooMany.Garanties, fmt.Sprintf("option %d", i))
	}
	err = ValidateForm(tooMany)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	assert.Contains(t, err.Error(), "garanties")

	longOption := valid()
	longOption.Garanties = []string{strings.Repeat("x", 101)}
	assert.Error(t, ValidateForm(longOption))
}

func TestScrub(t *testing.T) {
	form := &HabitationForm{
		Contact:      Contact{Prenom: "<b>Awa</b>", Nom: "Diallo", Telephone: "06-12-34-56-78<x>", Email: " AWA@Example.COM "},
		TypeLogement: "Maison",
		Adresse:      "12 rue des Lilas; DROP TABLE leads",
		Garanties:    []string{"Incendie", "<script>alert(1)</script>", " Incendie"},
	}

	var s Scrubber
	form.Scrub(&s)

	assert.Equal(t, "Awa", form.Prenom)
	assert.Equal(t, "awa@example.com", form.Email)
	assert.NotContains(t, form.Adresse, ";")
	assert.NotContains(t, form.Adresse, "DROP")
	assert.Equal(t, []string{"Incendie"}, form.Garanties)
	assert.Contains(t, s.Flagged(), "adresse")
	assert.Contains(t, s.Flagged(), "garanties")
	assert.NotContains(t, s.Flagged(), "nom")
}

func TestSubmitRequestValidate(t *testing.T) {
	req := &SubmitRequest{FormType: " Moto ", FormData: json.RawMessage(`{}`)}
	req.Normalize()
	assert.Equal(t, "moto", req.FormType)
	assert.NoError(t, req.Validate())

	assert.Error(t, (&SubmitRequest{FormData: json.RawMessage(`{}`)}).Validate())
	assert.Error(t, (&SubmitRequest{FormType: "sante", FormData: json.RawMessage(`{}`)}).Validate())
	assert.Error(t, (&SubmitRequest{FormType: "auto"}).Validate())
}
