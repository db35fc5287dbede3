// Package enrich derives related entities and typed relations from a scanned entity.
//
// Derivation is a deterministic mock of OSINT collection: the same base
// entity always yields the same derived values, descriptions and labels.
package enrich

import (
	"fmt"
	"strings"

	"github.com/raphaelgruber/entity-scanner/internal/models"
)

// Fixed placeholder values used by the rule table.
const (
	UsernameDefaultDomain = "example.com"
	PhoneBreachCollection = "phone-breach-collection"
	breachSuffix          = "-breach-2023"
)

// Derivation is one planned entity plus the label of the edge from the base.
type Derivation struct {
	Input models.EntityInput
	Label models.RelationLabel
}

// SplitEmail splits an email into its local part and domain. The value must
// contain exactly one '@' with non-empty text on both sides.
func SplitEmail(value string) (local, domain string, err error) {
	if strings.Count(value, "@") != 1 {
		return "", "", &models.ValidationError{
			Field:  "value",
			Reason: fmt.Sprintf("email %q must contain exactly one '@'", value),
		}
	}
	local, domain, _ = strings.Cut(value, "@")
	if local == "" || domain == "" {
		return "", "", &models.ValidationError{
			Field:  "value",
			Reason: fmt.Sprintf("email %q needs a local part and a domain", value),
		}
	}
	return local, domain, nil
}

// Plan returns the derivations for a base entity in rule-table order,
// without touching any store. Every planned input is validated, so a nil
// error means the whole enrichment can be persisted.
func Plan(typ models.EntityType, value string) ([]Derivation, error) {
	var plan []Derivation

	switch typ {
	case models.EntityEmail:
		local, domain, err := SplitEmail(value)
		if err != nil {
			return nil, err
		}
		plan = []Derivation{
			derive(models.EntityUsername, local, models.RelUses,
				"Username derived from %s", value),
			derive(models.EntityDomain, domain, models.RelRegisteredAt,
				"Domain extracted from %s", value),
			derive(models.EntityBreach, domain+breachSuffix, models.RelAppearsIn,
				"Simulated breach record involving %s (from %s)", domain, value),
		}

	case models.EntityUsername:
		plan = []Derivation{
			derive(models.EntityDomain, UsernameDefaultDomain, models.RelUses,
				"Default related domain for username %s", value),
		}

	case models.EntityPhone:
		plan = []Derivation{
			derive(models.EntityBreach, PhoneBreachCollection, models.RelAppearsIn,
				"Simulated phone leak collection for %s", value),
		}

	case models.EntityDomain, models.EntityBreach:
		return []Derivation{}, nil

	default:
		return nil, &models.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown entity type %q", typ)}
	}

	for _, d := range plan {
		if err := d.Input.Validate(); err != nil {
			return nil, fmt.Errorf("derived %s %q: %w", d.Input.Type, d.Input.Value, err)
		}
	}
	return plan, nil
}

func derive(typ models.EntityType, value string, label models.RelationLabel, format string, args ...any) Derivation {
	return Derivation{
		Input: models.EntityInput{
			Type:        typ,
			Value:       value,
			Description: models.StringPtr(fmt.Sprintf(format, args...)),
		},
		Label: label,
	}
}
