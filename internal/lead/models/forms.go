package models

import (
	"encoding/json"
	"fmt"

	dErrors "leadgate/pkg/domain-errors"
	limits "leadgate/pkg/platform/validation"
	"leadgate/pkg/validation"
)

// Contact holds the identity fields shared by every product.
type Contact struct {
	Prenom    string `json:"prenom" validate:"notblank,max=100"`
	Nom       string `json:"nom" validate:"notblank,max=100"`
	Telephone string `json:"telephone" validate:"required,phone"`
	Email     string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

func (c *Contact) scrub(s *Scrubber) {
	s.Text("prenom", &c.Prenom)
	s.Text("nom", &c.Nom)
	s.Phone("telephone", &c.Telephone)
	s.Email("email", &c.Email)
}

// Fallback fills empty identity fields from the top-level contact fields
// of the request.
func (c *Contact) Fallback(firstName, lastName, email string) {
	if c.Prenom == "" {
		c.Prenom = firstName
	}
	if c.Nom == "" {
		c.Nom = lastName
	}
	if c.Email == "" {
		c.Email = email
	}
}

// Consent holds the consent checkboxes shared by every product.
type Consent struct {
	MarketingConsent bool `json:"marketingConsent"`
	TermsAccepted    bool `json:"termsAccepted" validate:"accepted"`
}

// Form is a typed lead form for one product.
type Form interface {
	Product() Product
	Identity() *Contact
	// Scrub sanitizes every string field in place.
	Scrub(s *Scrubber)
	// Canonical maps the form to the payload stored by the CMS.
	Canonical(m *Mapper) any
}

// DecodeForm unmarshals formData into the product's form model.
func DecodeForm(p Product, raw json.RawMessage) (Form, error) {
	var form Form
	switch p {
	case ProductAuto:
		form = &AutoForm{}
	case ProductMoto:
		form = &MotoForm{}
	case ProductHabitation:
		form = &HabitationForm{}
	case ProductEntreprise:
		form = &EntrepriseForm{}
	case ProductProfessionnelle:
		form = &ProfessionnelleForm{}
	case ProductPlaisance:
		form = &PlaisanceForm{}
	case ProductIndividuelleAccidents:
		form = &IndividuelleAccidentsForm{}
	case ProductCarteVerte:
		form = &CarteVerteForm{}
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "Type de formulaire inconnu.")
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, dErrors.New(dErrors.CodeValidation, "Les données du formulaire sont manquantes.")
	}
	if err := json.Unmarshal(raw, form); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, fmt.Sprintf("Les données du formulaire %s sont invalides.", p))
	}
	return form, nil
}

// ValidateForm enforces the identity and consent invariants plus the
// product's own validate tags. Coverage multi-selects are bounded separately.
func ValidateForm(f Form) error {
	if err := validation.Validate(f); err != nil {
		return err
	}
	c, ok := f.(coverageForm)
	if !ok {
		return nil
	}
	if err := limits.CheckSliceCount("garanties", len(c.coverage()), limits.MaxCoverageOptions); err != nil {
		return err
	}
	return limits.CheckEachStringLength("garanties", c.coverage(), limits.MaxNameLength)
}

type coverageForm interface {
	coverage() []string
}

type AutoForm struct {
	Contact
	Consent
	TypeDeVoiture         string   `json:"typeDeVoiture" validate:"notblank"`
	Carburant             string   `json:"carburant" validate:"notblank"`
	Marque                string   `json:"marque" validate:"max=100"`
	Modele                string   `json:"modele" validate:"max=100"`
	DateMiseEnCirculation string   `json:"dateMiseEnCirculation"`
	DateNaissance         string   `json:"dateNaissance"`
	DatePermis            string   `json:"datePermis"`
	Usage                 string   `json:"usage"`
	Garanties             []string `json:"garanties"`
	Message               string   `json:"message" validate:"max=1000"`
}

func (f *AutoForm) Product() Product   { return ProductAuto }
func (f *AutoForm) Identity() *Contact { return &f.Contact }
func (f *AutoForm) coverage() []string { return f.Garanties }

func (f *AutoForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("typeDeVoiture", &f.TypeDeVoiture)
	s.Text("carburant", &f.Carburant)
	s.Text("marque", &f.Marque)
	s.Text("modele", &f.Modele)
	s.Text("usage", &f.Usage)
	s.Texts("garanties", &f.Garanties)
	s.Text("message", &f.Message)
}

func (f *AutoForm) Canonical(m *Mapper) any {
	return AutoPayload{
		ContactPayload:        contactPayload(f.Contact, f.Consent),
		TypeAchat:             m.Label(TypeAchat, f.TypeDeVoiture),
		TypeCarburant:         m.Label(Carburant, f.Carburant),
		Marque:                f.Marque,
		Modele:                f.Modele,
		DateMiseEnCirculation: m.Date("dateMiseEnCirculation", f.DateMiseEnCirculation),
		DateNaissance:         m.Date("dateNaissance", f.DateNaissance),
		DatePermis:            m.Date("datePermis", f.DatePermis),
		Usage:                 m.Label(UsageVehicule, f.Usage),
		Garanties:             m.Labels(GarantieAuto, f.Garanties),
		Message:               f.Message,
	}
}

type MotoForm struct {
	Contact
	Consent
	TypeDeMoto    string   `json:"Typedemoto" validate:"notblank"`
	Marque        string   `json:"marque" validate:"max=100"`
	Modele        string   `json:"modele" validate:"max=100"`
	Cylindree     string   `json:"cylindree" validate:"max=20"`
	DateNaissance string   `json:"dateNaissance"`
	DatePermis    string   `json:"datePermis"`
	Garanties     []string `json:"garanties"`
	Message       string   `json:"message" validate:"max=1000"`
}

func (f *MotoForm) Product() Product   { return ProductMoto }
func (f *MotoForm) Identity() *Contact { return &f.Contact }
func (f *MotoForm) coverage() []string { return f.Garanties }

func (f *MotoForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("Typedemoto", &f.TypeDeMoto)
	s.Text("marque", &f.Marque)
	s.Text("modele", &f.Modele)
	s.Text("cylindree", &f.Cylindree)
	s.Texts("garanties", &f.Garanties)
	s.Text("message", &f.Message)
}

func (f *MotoForm) Canonical(m *Mapper) any {
	return MotoPayload{
		ContactPayload: contactPayload(f.Contact, f.Consent),
		TypeMoto:       m.Label(TypeMoto, f.TypeDeMoto),
		Marque:         f.Marque,
		Modele:         f.Modele,
		Cylindree:      f.Cylindree,
		DateNaissance:  m.Date("dateNaissance", f.DateNaissance),
		DatePermis:     m.Date("datePermis", f.DatePermis),
		Garanties:      m.Labels(GarantieAuto, f.Garanties),
		Message:        f.Message,
	}
}

type HabitationForm struct {
	Contact
	Consent
	TypeLogement   string   `json:"typeLogement" validate:"notblank"`
	StatutOccupant string   `json:"statutOccupant" validate:"notblank"`
	NombrePieces   int      `json:"nombrePieces" validate:"gte=0,lte=50"`
	Superficie     int      `json:"superficie" validate:"gte=0,lte=10000"`
	Adresse        string   `json:"adresse" validate:"max=255"`
	Ville          string   `json:"ville" validate:"max=100"`
	Garanties      []string `json:"garanties"`
	Message        string   `json:"message" validate:"max=1000"`
}

func (f *HabitationForm) Product() Product   { return ProductHabitation }
func (f *HabitationForm) Identity() *Contact { return &f.Contact }
func (f *HabitationForm) coverage() []string { return f.Garanties }

func (f *HabitationForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("typeLogement", &f.TypeLogement)
	s.Text("statutOccupant", &f.StatutOccupant)
	s.Text("adresse", &f.Adresse)
	s.Text("ville", &f.Ville)
	s.Texts("garanties", &f.Garanties)
	s.Text("message", &f.Message)
}

func (f *HabitationForm) Canonical(m *Mapper) any {
	return HabitationPayload{
		ContactPayload: contactPayload(f.Contact, f.Consent),
		TypeLogement:   m.Label(TypeLogement, f.TypeLogement),
		StatutOccupant: m.Label(StatutOccupant, f.StatutOccupant),
		NombrePieces:   f.NombrePieces,
		Superficie:     f.Superficie,
		Adresse:        f.Adresse,
		Ville:          f.Ville,
		Garanties:      m.Labels(GarantieHabitation, f.Garanties),
		Message:        f.Message,
	}
}

type EntrepriseForm struct {
	Contact
	Consent
	RaisonSociale   string   `json:"raisonSociale" validate:"notblank,max=200"`
	SecteurActivite string   `json:"secteurActivite" validate:"max=200"`
	NombreSalaries  string   `json:"nombreSalaries" validate:"notblank"`
	ChiffreAffaires string   `json:"chiffreAffaires" validate:"max=50"`
	Garanties       []string `json:"garanties"`
	Message         string   `json:"message" validate:"max=1000"`
}

func (f *EntrepriseForm) Product() Product   { return ProductEntreprise }
func (f *EntrepriseForm) Identity() *Contact { return &f.Contact }
func (f *EntrepriseForm) coverage() []string { return f.Garanties }

func (f *EntrepriseForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("raisonSociale", &f.RaisonSociale)
	s.Text("secteurActivite", &f.SecteurActivite)
	s.Text("nombreSalaries", &f.NombreSalaries)
	s.Text("chiffreAffaires", &f.ChiffreAffaires)
	s.Texts("garanties", &f.Garanties)
	s.Text("message", &f.Message)
}

func (f *EntrepriseForm) Canonical(m *Mapper) any {
	return EntreprisePayload{
		ContactPayload:   contactPayload(f.Contact, f.Consent),
		RaisonSociale:    f.RaisonSociale,
		SecteurActivite:  f.SecteurActivite,
		TailleEntreprise: m.Label(TailleEntreprise, f.NombreSalaries),
		ChiffreAffaires:  f.ChiffreAffaires,
		Garanties:        m.Labels(GarantieEntreprise, f.Garanties),
		Message:          f.Message,
	}
}

type ProfessionnelleForm struct {
	Contact
	Consent
	Profession          string   `json:"profession" validate:"notblank,max=200"`
	StatutProfessionnel string   `json:"statutProfessionnel" validate:"notblank"`
	DateCreation        string   `json:"dateCreation"`
	Garanties           []string `json:"garanties"`
	Message             string   `json:"message" validate:"max=1000"`
}

func (f *ProfessionnelleForm) Product() Product   { return ProductProfessionnelle }
func (f *ProfessionnelleForm) Identity() *Contact { return &f.Contact }
func (f *ProfessionnelleForm) coverage() []string { return f.Garanties }

func (f *ProfessionnelleForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("profession", &f.Profession)
	s.Text("statutProfessionnel", &f.StatutProfessionnel)
	s.Texts("garanties", &f.Garanties)
	s.Text("message", &f.Message)
}

func (f *ProfessionnelleForm) Canonical(m *Mapper) any {
	return ProfessionnellePayload{
		ContactPayload:      contactPayload(f.Contact, f.Consent),
		Profession:          f.Profession,
		StatutProfessionnel: m.Label(StatutProfessionnel, f.StatutProfessionnel),
		DateCreation:        m.Date("dateCreation", f.DateCreation),
		Garanties:           m.Labels(GarantieEntreprise, f.Garanties),
		Message:             f.Message,
	}
}

type PlaisanceForm struct {
	Contact
	Consent
	TypeEmbarcation string `json:"typeEmbarcation" validate:"notblank"`
	Marque          string `json:"marque" validate:"max=100"`
	Longueur        string `json:"longueur" validate:"max=20"`
	Puissance       string `json:"puissance" validate:"max=20"`
	DateAcquisition string `json:"dateAcquisition"`
	ZoneNavigation  string `json:"zoneNavigation"`
	Message         string `json:"message" validate:"max=1000"`
}

func (f *PlaisanceForm) Product() Product   { return ProductPlaisance }
func (f *PlaisanceForm) Identity() *Contact { return &f.Contact }

func (f *PlaisanceForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("typeEmbarcation", &f.TypeEmbarcation)
	s.Text("marque", &f.Marque)
	s.Text("longueur", &f.Longueur)
	s.Text("puissance", &f.Puissance)
	s.Text("zoneNavigation", &f.ZoneNavigation)
	s.Text("message", &f.Message)
}

func (f *PlaisanceForm) Canonical(m *Mapper) any {
	return PlaisancePayload{
		ContactPayload:  contactPayload(f.Contact, f.Consent),
		TypeEmbarcation: m.Label(TypeEmbarcation, f.TypeEmbarcation),
		Marque:          f.Marque,
		Longueur:        f.Longueur,
		Puissance:       f.Puissance,
		DateAcquisition: m.Date("dateAcquisition", f.DateAcquisition),
		ZoneNavigation:  m.Label(ZoneNavigation, f.ZoneNavigation),
		Message:         f.Message,
	}
}

type IndividuelleAccidentsForm struct {
	Contact
	Consent
	DateNaissance      string `json:"dateNaissance"`
	Profession         string `json:"profession" validate:"max=200"`
	SituationFamiliale string `json:"situationFamiliale"`
	TrancheAge         string `json:"trancheAge" validate:"notblank"`
	Formule            string `json:"formule" validate:"notblank"`
	Message            string `json:"message" validate:"max=1000"`
}

func (f *IndividuelleAccidentsForm) Product() Product   { return ProductIndividuelleAccidents }
func (f *IndividuelleAccidentsForm) Identity() *Contact { return &f.Contact }

func (f *IndividuelleAccidentsForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("profession", &f.Profession)
	s.Text("situationFamiliale", &f.SituationFamiliale)
	s.Text("trancheAge", &f.TrancheAge)
	s.Text("formule", &f.Formule)
	s.Text("message", &f.Message)
}

func (f *IndividuelleAccidentsForm) Canonical(m *Mapper) any {
	return IndividuelleAccidentsPayload{
		ContactPayload:     contactPayload(f.Contact, f.Consent),
		DateNaissance:      m.Date("dateNaissance", f.DateNaissance),
		Profession:         f.Profession,
		SituationFamiliale: m.Label(SituationFamiliale, f.SituationFamiliale),
		TrancheAge:         m.Label(TrancheAge, f.TrancheAge),
		Formule:            m.Label(FormuleAccident, f.Formule),
		Message:            f.Message,
	}
}

type CarteVerteForm struct {
	Contact
	Consent
	TypeVehicule    string `json:"typeVehicule" validate:"notblank"`
	Immatriculation string `json:"immatriculation" validate:"notblank,max=20"`
	PaysDestination string `json:"paysDestination" validate:"max=100"`
	DateDebut       string `json:"dateDebut"`
	Duree           string `json:"duree" validate:"notblank"`
}

func (f *CarteVerteForm) Product() Product   { return ProductCarteVerte }
func (f *CarteVerteForm) Identity() *Contact { return &f.Contact }

func (f *CarteVerteForm) Scrub(s *Scrubber) {
	f.Contact.scrub(s)
	s.Text("typeVehicule", &f.TypeVehicule)
	s.Text("immatriculation", &f.Immatriculation)
	s.Text("paysDestination", &f.PaysDestination)
	s.Text("duree", &f.Duree)
}

func (f *CarteVerteForm) Canonical(m *Mapper) any {
	return CarteVertePayload{
		ContactPayload:  contactPayload(f.Contact, f.Consent),
		TypeVehicule:    m.Label(TypeVehiculeCarteVerte, f.TypeVehicule),
		Immatriculation: f.Immatriculation,
		PaysDestination: f.PaysDestination,
		DateDebut:       m.Date("dateDebut", f.DateDebut),
		Duree:           m.Label(DureeCarteVerte, f.Duree),
	}
}
