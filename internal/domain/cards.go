package domain

var spellNames = map[string]bool{
	"Zap": true, "The Log": true, "Arrows": true, "Fireball": true, "Poison": true,
	"Rocket": true, "Lightning": true, "Earthquake": true, "Void": true,
}

var buildingNames = map[string]bool{
	"Cannon": true, "Tesla": true, "Inferno Tower": true, "Bomb Tower": true,
	"X-Bow": true, "Mortar": true, "Tombstone": true, "Goblin Cage": true,
}

// CardTypeOf derives the card type from the upstream id range
// (26xxxxxx troop, 27xxxxxx building, 28xxxxxx spell) and falls back to
// known card names.
func CardTypeOf(id int, name string) CardType {
	switch id / 1_000_000 {
	case 26:
		return CardTypeTroop
	case 27:
		return CardTypeBuilding
	case 28:
		return CardTypeSpell
	}
	return CardTypeByName(name)
}

func CardTypeByName(name string) CardType {
	switch {
	case spellNames[name]:
		return CardTypeSpell
	case buildingNames[name]:
		return CardTypeBuilding
	default:
		return CardTypeTroop
	}
}
