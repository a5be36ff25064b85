package models

// GiftCatalog is the fixed set of gift types and their point values.
// Not user-editable.
var GiftCatalog = map[string]int{
	"star":    5,
	"rose":    10,
	"heart":   15,
	"silver":  25,
	"gold":    50,
	"crown":   100,
	"diamond": 200,
	"rocket":  500,
	"trophy":  1000,
}

func IsValidGiftType(giftType string) bool {
	_, ok := GiftCatalog[giftType]
	return ok
}

// GiftValue returns the catalog point value for a gift type, 0 if unknown.
func GiftValue(giftType string) int {
	return GiftCatalog[giftType]
}
