package enums

import "fmt"

// StoneOption marks whether a product is set with stones.
type StoneOption string

const (
	StoneOptionWithStones    StoneOption = "with_stones"
	StoneOptionWithoutStones StoneOption = "without_stones"
)

var validStoneOptions = []StoneOption{StoneOptionWithStones, StoneOptionWithoutStones}

// String implements fmt.Stringer.
func (o StoneOption) String() string {
	return string(o)
}

// IsValid reports whether the value is a known StoneOption.
func (o StoneOption) IsValid() bool {
	for _, candidate := range validStoneOptions {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseStoneOption converts raw input into a StoneOption.
func ParseStoneOption(value string) (StoneOption, error) {
	for _, candidate := range validStoneOptions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stone option %q", value)
}

// MaterialType separates jewelry metals from other materials.
type MaterialType string

const (
	MaterialTypeJewelry MaterialType = "jewelry"
	MaterialTypeOther   MaterialType = "other"
)

var validMaterialTypes = []MaterialType{MaterialTypeJewelry, MaterialTypeOther}

// String implements fmt.Stringer.
func (m MaterialType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MaterialType.
func (m MaterialType) IsValid() bool {
	for _, candidate := range validMaterialTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMaterialType converts raw input into a MaterialType.
func ParseMaterialType(value string) (MaterialType, error) {
	for _, candidate := range validMaterialTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid material type %q", value)
}
