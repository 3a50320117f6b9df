package models

import "strings"

// Product is the formType of a lead submission.
type Product string

const (
	ProductAuto                  Product = "auto"
	ProductMoto                  Product = "moto"
	ProductHabitation            Product = "habitation"
	ProductEntreprise            Product = "entreprise"
	ProductProfessionnelle       Product = "professionnelle"
	ProductPlaisance             Product = "plaisance"
	ProductIndividuelleAccidents Product = "individuelle-accidents"
	ProductCarteVerte            Product = "carte-verte"
)

// Products lists every supported product in display order.
var Products = []Product{
	ProductAuto,
	ProductMoto,
	ProductHabitation,
	ProductEntreprise,
	ProductProfessionnelle,
	ProductPlaisance,
	ProductIndividuelleAccidents,
	ProductCarteVerte,
}

// productAliases maps legacy formType spellings sent by older pages.
var productAliases = map[string]Product{
	"jet-ski":                ProductPlaisance,
	"bateau":                 ProductPlaisance,
	"individuelle_accidents": ProductIndividuelleAccidents,
	"individuelle-accident":  ProductIndividuelleAccidents,
	"carte_verte":            ProductCarteVerte,
	"pro":                    ProductProfessionnelle,
}

// ParseProduct resolves a formType, case-insensitively.
func ParseProduct(formType string) (Product, bool) {
	key := strings.ToLower(strings.TrimSpace(formType))
	for _, p := range Products {
		if string(p) == key {
			return p, true
		}
	}
	p, ok := productAliases[key]
	return p, ok
}

func (p Product) String() string {
	return string(p)
}

// Label is the French product name used in notifications.
func (p Product) Label() string {
	switch p {
	case ProductAuto:
		return "Assurance auto"
	case ProductMoto:
		return "Assurance moto"
	case ProductHabitation:
		return "Assurance habitation"
	case ProductEntreprise:
		return "Assurance entreprise"
	case ProductProfessionnelle:
		return "Assurance professionnelle"
	case ProductPlaisance:
		return "Assurance plaisance / jet-ski"
	case ProductIndividuelleAccidents:
		return "Individuelle accidents"
	case ProductCarteVerte:
		return "Carte verte"
	default:
		return string(p)
	}
}

// CollectionPaths returns the CMS collection endpoints to try, in order.
// Only auto has alternates: its collection was renamed more than once and
// deployments disagree on which route exists.
func (p Product) CollectionPaths() []string {
	if p == ProductAuto {
		return []string{"/api/auto-leads", "/api/auto-lead", "/api/leads-auto"}
	}
	return []string{"/api/" + string(p) + "-leads"}
}
