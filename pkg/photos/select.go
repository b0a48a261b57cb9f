package photos

import (
	apperrors "vkbackup/pkg/errors"
	"vkbackup/pkg/models"
)

// sizeRank orders VK size-class tags from smallest to largest rendition.
// Unknown tags rank below all known ones.
var sizeRank = map[string]int{
	"s": 1, "m": 2, "x": 3, "o": 4, "p": 5, "q": 6, "r": 7, "y": 8, "z": 9, "w": 10,
}

// Largest returns the variant with the greatest width x height.
// Equal areas are resolved by size-class rank and then by first occurrence,
// so the choice is stable for a given input.
func Largest(sizes []models.SizeVariant) (models.SizeVariant, error) {
	if len(sizes) == 0 {
		return models.SizeVariant{}, apperrors.New(apperrors.ErrorTypeInvalidInput, "photo has no size data")
	}

	best := sizes[0]
	for _, s := range sizes[1:] {
		switch {
		case s.Area() > best.Area():
			best = s
		case s.Area() == best.Area() && sizeRank[s.Type] > sizeRank[best.Type]:
			best = s
		}
	}
	return best, nil
}

// MaxArea returns the area of p's largest variant, or 0 without variants
func MaxArea(p models.Photo) int64 {
	best, err := Largest(p.Sizes)
	if err != nil {
		return 0
	}
	return best.Area()
}
