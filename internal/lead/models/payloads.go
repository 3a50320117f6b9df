package models

// ContactPayload is embedded in every canonical payload.
type ContactPayload struct {
	Prenom           string `json:"prenom"`
	Nom              string `json:"nom"`
	Telephone        string `json:"telephone"`
	Email            string `json:"email,omitempty"`
	MarketingConsent bool   `json:"marketingConsent"`
	TermsAccepted    bool   `json:"termsAccepted"`
}

func contactPayload(c Contact, consent Consent) ContactPayload {
	return ContactPayload{
		Prenom:           c.Prenom,
		Nom:              c.Nom,
		Telephone:        c.Telephone,
		Email:            c.Email,
		MarketingConsent: consent.MarketingConsent,
		TermsAccepted:    consent.TermsAccepted,
	}
}

// Date fields are *string: nil is sent as null when the input date was
// missing or unrecognized.

type AutoPayload struct {
	ContactPayload
	TypeAchat             string   `json:"typeAchat"`
	TypeCarburant         string   `json:"typeCarburant"`
	Marque                string   `json:"marque,omitempty"`
	Modele                string   `json:"modele,omitempty"`
	DateMiseEnCirculation *string  `json:"dateMiseEnCirculation"`
	DateNaissance         *string  `json:"dateNaissance"`
	DatePermis            *string  `json:"datePermis"`
	Usage                 string   `json:"usage,omitempty"`
	Garanties             []string `json:"garanties,omitempty"`
	Message               string   `json:"message,omitempty"`
}

type MotoPayload struct {
	ContactPayload
	TypeMoto      string   `json:"typeMoto"`
	Marque        string   `json:"marque,omitempty"`
	Modele        string   `json:"modele,omitempty"`
	Cylindree     string   `json:"cylindree,omitempty"`
	DateNaissance *string  `json:"dateNaissance"`
	DatePermis    *string  `json:"datePermis"`
	Garanties     []string `json:"garanties,omitempty"`
	Message       string   `json:"message,omitempty"`
}

type HabitationPayload struct {
	ContactPayload
	TypeLogement   string   `json:"typeLogement"`
	StatutOccupant string   `json:"statutOccupant"`
	NombrePieces   int      `json:"nombrePieces,omitempty"`
	Superficie     int      `json:"superficie,omitempty"`
	Adresse        string   `json:"adresse,omitempty"`
	Ville          string   `json:"ville,omitempty"`
	Garanties      []string `json:"garanties,omitempty"`
	Message        string   `json:"message,omitempty"`
}

type EntreprisePayload struct {
	ContactPayload
	RaisonSociale    string   `json:"raisonSociale"`
	SecteurActivite  string   `json:"secteurActivite,omitempty"`
	TailleEntreprise string   `json:"tailleEntreprise"`
	ChiffreAffaires  string   `json:"chiffreAffaires,omitempty"`
	Garanties        []string `json:"garanties,omitempty"`
	Message          string   `json:"message,omitempty"`
}

type ProfessionnellePayload struct {
	ContactPayload
	Profession          string   `json:"profession"`
	StatutProfessionnel string   `json:"statutProfessionnel"`
	DateCreation        *string  `json:"dateCreation"`
	Garanties           []string `json:"garanties,omitempty"`
	Message             string   `json:"message,omitempty"`
}

type PlaisancePayload struct {
	ContactPayload
	TypeEmbarcation string  `json:"typeEmbarcation"`
	Marque          string  `json:"marque,omitempty"`
	Longueur        string  `json:"longueur,omitempty"`
	Puissance       string  `json:"puissance,omitempty"`
	DateAcquisition *string `json:"dateAcquisition"`
	ZoneNavigation  string  `json:"zoneNavigation,omitempty"`
	Message         string  `json:"message,omitempty"`
}

type IndividuelleAccidentsPayload struct {
	ContactPayload
	DateNaissance      *string `json:"dateNaissance"`
	Profession         string  `json:"profession,omitempty"`
	SituationFamiliale string  `json:"situationFamiliale,omitempty"`
	TrancheAge         string  `json:"trancheAge"`
	Formule            string  `json:"formule"`
	Message            string  `json:"message,omitempty"`
}

type CarteVertePayload struct {
	ContactPayload
	TypeVehicule    string  `json:"typeVehicule"`
	Immatriculation string  `json:"immatriculation"`
	PaysDestination string  `json:"paysDestination,omitempty"`
	DateDebut       *string `json:"dateDebut"`
	Duree           string  `json:"duree"`
}
