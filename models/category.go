package models

import "strings"

// IncidentType is the category of a reported incident.
type IncidentType string

const (
	TypeBache             IncidentType = "Bache"
	TypeFugaDeAgua        IncidentType = "Fuga de Agua"
	TypePosteDanado       IncidentType = "Poste Dañado"
	TypeSemaforoDanado    IncidentType = "Semáforo Dañado"
	TypeAcumulacionBasura IncidentType = "Acumulación de Basura"
	TypeOtro              IncidentType = "Otro"
)

// FilterAll is the feed filter value that disables category filtering.
const FilterAll = "Todos"

// IncidentTypes lists every category in display order.
var IncidentTypes = []IncidentType{
	TypeBache,
	TypeFugaDeAgua,
	TypePosteDanado,
	TypeSemaforoDanado,
	TypeAcumulacionBasura,
	TypeOtro,
}

func (t IncidentType) Valid() bool {
	for _, known := range IncidentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseIncidentType returns the category named by s, or false if s is not one.
func ParseIncidentType(s string) (IncidentType, bool) {
	t := IncidentType(strings.TrimSpace(s))
	return t, t.Valid()
}

// IsFilterAll reports whether a feed filter selects every category.
func IsFilterAll(tipo string) bool {
	tipo = strings.TrimSpace(tipo)
	return tipo == "" || tipo == FilterAll || strings.EqualFold(tipo, "all")
}
