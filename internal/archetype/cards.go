package archetype

// Card role sets. Names match the upstream catalog spelling.

// heavyTanks is ordered: the first present tank names a beatdown deck.
var heavyTanks = []string{
	"Lava Hound",
	"Golem",
	"Electro Giant",
	"Goblin Giant",
	"Elixir Golem",
	"Giant",
	"Royal Giant",
}

var siegeBuildings = []string{"X-Bow", "Mortar"}

var otherWinConditions = []string{
	"Hog Rider",
	"Ram Rider",
	"Battle Ram",
	"Balloon",
	"Graveyard",
	"Miner",
	"Goblin Barrel",
	"Wall Breakers",
	"Skeleton Barrel",
	"Goblin Drill",
	"Royal Hogs",
	"Three Musketeers",
}

var winConditions = func() set {
	s := newSet(otherWinConditions...)
	for _, n := range heavyTanks {
		s[n] = struct{}{}
	}
	for _, n := range siegeBuildings {
		s[n] = struct{}{}
	}
	return s
}()

var baitCards = newSet(
	"Princess",
	"Goblin Gang",
	"Rascals",
	"Dart Goblin",
	"Skeleton Army",
	"Spear Goblins",
	"Bats",
)

var spamCards = newSet(
	"Bandit",
	"Royal Ghost",
	"Dark Prince",
	"Battle Ram",
	"Ram Rider",
	"Prince",
	"Elite Barbarians",
)

var buildings = newSet(
	"Tesla",
	"Inferno Tower",
	"Bomb Tower",
	"Goblin Cage",
	"Cannon",
	"Tombstone",
	"Furnace",
	"Barbarian Hut",
)

var (
	heavyTankSet = newSet(heavyTanks...)
	siegeSet     = newSet(siegeBuildings...)
)

type set map[string]struct{}

func newSet(names ...string) set {
	s := make(set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s set) has(name string) bool {
	_, ok := s[name]
	return ok
}

// IsWinCondition reports whether a card anchors archetype classification.
func IsWinCondition(name string) bool { return winConditions.has(name) }
