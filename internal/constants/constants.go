package constants

import "time"

const (
	HolderRenderTTL = 10 * time.Minute
	CardRenderTTL   = 7 * 24 * time.Hour
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 90 * time.Second
	MirrorTimeout      = 15 * time.Second
	RenderTimeout      = 45 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout     = 5 * time.Second
	MemorySweepInterval = 5 * time.Minute
)

// Key namespaces in the cache store.
const (
	ProfileNamespace = "player_cards:profile"
	HistoryNamespace = "player_cards:history"
	RenderNamespace  = "player_cards:render"
)

const (
	ButtonsPerRow     = 4
	RowsPerPage       = 3
	HolderCharacters  = 8
	ArtifactsPerSet   = 5
	MirrorConcurrency = 8
)

const (
	CardTemplate     = "player_card"
	HolderTemplate   = "holder"
	CardSelector     = ".text-neutral-200"
	CardWidth        = 950
	CardHeight       = 1080
	HolderWidth      = 750
	HolderHeight     = 580
	EnkaUIAssetsPath = "/ui/"
)
