package models

import (
	"fmt"
	"strings"

	dErrors "leadgate/pkg/domain-errors"
)

// Table maps UI labels to the enum tokens the CMS stores.
type Table struct {
	Field   string
	entries map[string]string
}

func newTable(field string, entries map[string]string) Table {
	return Table{Field: field, entries: entries}
}

// Lookup matches the label exactly, then case-insensitively.
func (t Table) Lookup(label string) (string, bool) {
	label = strings.TrimSpace(label)
	if token, ok := t.entries[label]; ok {
		return token, true
	}
	for k, token := range t.entries {
		if strings.EqualFold(k, label) {
			return token, true
		}
	}
	return "", false
}

var (
	TypeAchat = newTable("typeDeVoiture", map[string]string{
		"Nouvel Achat":              "nouvel_achat",
		"Véhicule d'occasion":       "occasion",
		"Changement d'assureur":     "changement_assureur",
		"Renouvellement de contrat": "renouvellement",
	})

	Carburant = newTable("carburant", map[string]string{
		"Essence":    "essence",
		"Diesel":     "diesel",
		"Hybride":    "hybride",
		"Électrique": "electrique",
		"Electrique": "electrique",
		"GPL":        "gpl",
	})

	UsageVehicule = newTable("usage", map[string]string{
		"Personnel":     "personnel",
		"Professionnel": "professionnel",
		"Mixte":         "mixte",
	})

	GarantieAuto = newTable("garanties", map[string]string{
		"Responsabilité civile": "responsabilite_civile",
		"Vol":                   "vol",
		"Incendie":              "incendie",
		"Bris de glace":         "bris_de_glace",
		"Tous risques":          "tous_risques",
		"Assistance":            "assistance",
		"Défense et recours":    "defense_recours",
	})

	TypeMoto = newTable("Typedemoto", map[string]string{
		"125cc ou plus":  "plus_125cc",
		"Moins de 125cc": "moins_125cc",
		"Scooter":        "scooter",
		"Quad":           "quad",
		"Tricycle":       "tricycle",
	})

	TypeLogement = newTable("typeLogement", map[string]string{
		"Appartement": "appartement",
		"Maison":      "maison",
		"Villa":       "villa",
		"Studio":      "studio",
	})

	StatutOccupant = newTable("statutOccupant", map[string]string{
		"Propriétaire":              "proprietaire",
		"Locataire":                 "locataire",
		"Propriétaire non occupant": "proprietaire_non_occupant",
	})

	GarantieHabitation = newTable("garanties", map[string]string{
		"Incendie":                "incendie",
		"Dégâts des eaux":         "degats_des_eaux",
		"Vol et vandalisme":       "vol_vandalisme",
		"Responsabilité civile":   "responsabilite_civile",
		"Bris de glace":           "bris_de_glace",
		"Catastrophes naturelles": "catastrophes_naturelles",
	})

	TailleEntreprise = newTable("nombreSalaries", map[string]string{
		"1 à 9":       "tpe",
		"10 à 49":     "pe",
		"50 à 249":    "eti",
		"250 et plus": "grande_entreprise",
	})

	GarantieEntreprise = newTable("garanties", map[string]string{
		"Multirisque":          "multirisque",
		"RC professionnelle":   "rc_pro",
		"Flotte automobile":    "flotte_automobile",
		"Santé collective":     "sante_collective",
		"Perte d'exploitation": "perte_exploitation",
	})

	StatutProfessionnel = newTable("statutProfessionnel", map[string]string{
		"Indépendant":         "independant",
		"Profession libérale": "profession_liberale",
		"Artisan":             "artisan",
		"Commerçant":          "commercant",
		"Auto-entrepreneur":   "auto_entrepreneur",
	})

	TypeEmbarcation = newTable("typeEmbarcation", map[string]string{
		"Bateau à moteur": "bateau_moteur",
		"Voilier":         "voilier",
		"Jet-ski":         "jet_ski",
		"Semi-rigide":     "semi_rigide",
	})

	ZoneNavigation = newTable("zoneNavigation", map[string]string{
		"Eaux intérieures": "eaux_interieures",
		"Côtière":          "cotiere",
		"Hauturière":       "hauturiere",
	})

	SituationFamiliale = newTable("situationFamiliale", map[string]string{
		"Célibataire": "celibataire",
		"Marié(e)":    "marie",
		"Pacsé(e)":    "pacse",
		"Divorcé(e)":  "divorce",
		"Veuf(ve)":    "veuf",
	})

	TrancheAge = newTable("trancheAge", map[string]string{
		"18-25 ans":      "18_25",
		"26-40 ans":      "26_40",
		"41-60 ans":      "41_60",
		"Plus de 60 ans": "plus_60",
	})

	FormuleAccident = newTable("formule", map[string]string{
		"Essentielle": "essentielle",
		"Confort":     "confort",
		"Premium":     "premium",
	})

	TypeVehiculeCarteVerte = newTable("typeVehicule", map[string]string{
		"Voiture":     "voiture",
		"Moto":        "moto",
		"Camion":      "camion",
		"Camping-car": "camping_car",
	})

	DureeCarteVerte = newTable("duree", map[string]string{
		"15 jours": "15_jours",
		"1 mois":   "1_mois",
		"3 mois":   "3_mois",
		"6 mois":   "6_mois",
		"1 an":     "1_an",
	})
)

// Mapper translates labels and dates into canonical values.
//
// An unknown label passes through unchanged and a bad date is dropped.
// Both are recorded; in strict mode Err reports them as a validation error.
type Mapper struct {
	strict   bool
	unmapped []string
}

func NewMapper(strict bool) *Mapper {
	return &Mapper{strict: strict}
}

// Label maps one label. Empty labels stay empty.
func (m *Mapper) Label(t Table, label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	if token, ok := t.Lookup(label); ok {
		return token
	}
	m.reject(t.Field)
	return label
}

// Labels maps a multi-select.
func (m *Mapper) Labels(t Table, labels []string) []string {
	if len(labels) == 0 {
		return nil
	}
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if token := m.Label(t, l); token != "" {
			out = append(out, token)
		}
	}
	return out
}

// Date converts value; nil means absent or unrecognized.
func (m *Mapper) Date(field, value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	d, ok := ConvertDate(value)
	if !ok {
		m.reject(field)
		return nil
	}
	return &d
}

// Err is nil in lenient mode. In strict mode it reports every unmapped
// field as a validation error.
func (m *Mapper) Err() error {
	if !m.strict || len(m.unmapped) == 0 {
		return nil
	}
	return dErrors.New(dErrors.CodeValidation,
		fmt.Sprintf("Valeur non reconnue pour le champ %s.", strings.Join(m.unmapped, ", ")))
}

// Unmapped lists the fields whose label or date could not be translated.
func (m *Mapper) Unmapped() []string {
	return m.unmapped
}

func (m *Mapper) reject(field string) {
	for _, f := range m.unmapped {
		if f == field {
			return
		}
	}
	m.unmapped = append(m.unmapped, field)
}
