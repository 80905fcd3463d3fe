package pipeline

import (
	"stolpersteine/internal"
	"stolpersteine/internal/fields"
)

// NormalizeCell runs a raw cell fragment through the parser registered for
// key. Keys without a parser get the cleaned cell text.
func NormalizeCell(key, fragment string) any {
	switch key {
	case internal.FieldImage:
		return fields.ParseImage(fragment)
	case internal.FieldCoordinates:
		return fields.ParseCoordinates(fragment)
	case internal.FieldInscription:
		return fields.ParseInscription(fragment)
	case internal.FieldPersonInfo:
		return fields.ParsePerson(fragment)
	case internal.FieldLocation:
		return fields.ParseLocation(fragment)
	default:
		return fields.CleanText(fragment)
	}
}
