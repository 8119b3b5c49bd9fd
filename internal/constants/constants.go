package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	CacheTimeout       = 500 * time.Millisecond
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const CatalogCacheKey = "crmeta:catalog:v1"

// Battle types counted as ranked ladder play.
var RankedBattleTypes = map[string]bool{
	"PvP":          true,
	"pathOfLegend": true,
}

const (
	SnapshotListLimit = 50
)
