// Package filter applies predicate queries to the specification and
// option records stored for each trim. Numeric predicates parse the
// Spanish number formats km77 uses ("170 CV / 125 kW", "8,1 s").
package filter

import (
	"strconv"
	"strings"

	"github.com/alexx-ftw/km77-scraper/pkg/models"
)

// notAvailable marks a field km77 publishes without a value. It never
// satisfies any predicate.
const notAvailable = "No disponible"

// Predicate reports whether a trim matches. Predicates look through both
// the specification and the option records of the trim.
type Predicate func(t *models.Trim) bool

// Apply returns the trims matching every predicate, in input order.
func Apply(trims []*models.Trim, preds ...Predicate) []*models.Trim {
	var out []*models.Trim
	for _, t := range trims {
		ok := true
		for _, p := range preds {
			if !p(t) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, t)
		}
	}
	return out
}

// records returns the trim's specs followed by its options.
func records(t *models.Trim) []models.Record {
	all := make([]models.Record, 0, len(t.Specs)+len(t.Options))
	all = append(all, t.Specs...)
	all = append(all, t.Options...)
	return all
}

// textField finds the first plain-text value for key across the trim's
// records, skipping the not-available marker.
func textField(t *models.Trim, key string) (string, bool) {
	for _, rec := range records(t) {
		v, ok := rec.Get(key)
		if !ok {
			continue
		}
		text, ok := v.(models.Text)
		if !ok || string(text) == notAvailable {
			continue
		}
		return string(text), true
	}
	return "", false
}

// ByField matches trims where any record holds the exact key/value pair.
func ByField(key, value string) Predicate {
	return func(t *models.Trim) bool {
		for _, rec := range records(t) {
			v, ok := rec.Get(key)
			if !ok {
				continue
			}
			if text, ok := v.(models.Text); ok && string(text) == value {
				return true
			}
		}
		return false
	}
}

// MinPower matches trims whose "Potencia máxima" is at least cv horsepower.
// The field reads like "170 CV / 125 kW".
func MinPower(cv float64) Predicate {
	return func(t *models.Trim) bool {
		raw, ok := textField(t, "Potencia máxima")
		if !ok {
			return false
		}
		got, err := parseSpanishFloat(strings.SplitN(raw, "CV", 2)[0])
		if err != nil {
			return false
		}
		return got >= cv
	}
}

// MaxAcceleration matches trims whose 0-100 km/h time is at most seconds.
// The field reads like "8,1 s".
func MaxAcceleration(seconds float64) Predicate {
	return func(t *models.Trim) bool {
		raw, ok := textField(t, "Aceleración 0-100 km/h")
		if !ok {
			return false
		}
		got, err := parseSpanishFloat(strings.SplitN(raw, "s", 2)[0])
		if err != nil {
			return false
		}
		return got <= seconds
	}
}

// MinCylinders matches trims with at least n cylinders.
func MinCylinders(n int) Predicate {
	return func(t *models.Trim) bool {
		raw, ok := textField(t, "Número de cilindros")
		if !ok {
			return false
		}
		got, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		return got >= n
	}
}

// MinGears matches trims with at least n gears. Continuously variable
// transmissions report "Múltiples" and never match.
func MinGears(n int) Predicate {
	return func(t *models.Trim) bool {
		raw, ok := textField(t, "Número de velocidades")
		if !ok || raw == "Múltiples" {
			return false
		}
		got, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return false
		}
		return got >= n
	}
}

// DiscBrakes matches trims with disc brakes on both axles.
func DiscBrakes() Predicate {
	return func(t *models.Trim) bool {
		front, okF := textField(t, "Tipo de frenos delanteros")
		rear, okR := textField(t, "Tipo de frenos traseros")
		if !okF || !okR {
			return false
		}
		return strings.Contains(strings.ToLower(front), "disco") &&
			strings.Contains(strings.ToLower(rear), "disco")
	}
}

// SteeringAssist matches trims whose steering section reports
// speed-dependent assistance or demultiplication.
func SteeringAssist() Predicate {
	return func(t *models.Trim) bool {
		for _, rec := range records(t) {
			v, ok := rec.Get("Dirección")
			if !ok {
				continue
			}
			section, ok := v.(models.Section)
			if !ok {
				continue
			}
			if val, ok := section.Get("Asistencia en función de la velocidad"); ok && val == "Sí" {
				return true
			}
			if val, ok := section.Get("Desmultiplicacion en función de la velocidad"); ok && val == "Sí" {
				return true
			}
		}
		return false
	}
}

// parseSpanishFloat parses a number written with a comma decimal separator
// and optional dot thousands separators.
func parseSpanishFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}
