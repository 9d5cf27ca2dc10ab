package constant

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentStaging    Environment = "staging"
	EnvironmentDevelop    Environment = "develop"
)

func (e Environment) String() string {
	return string(e)
}

// LookupTable names the reference tables whose rows admins can enable or
// disable.
type LookupTable string

const (
	LookupCategories LookupTable = "categories"
	LookupAges       LookupTable = "ages"
	LookupGenders    LookupTable = "genders"
	LookupMimeTypes  LookupTable = "mime_types"
)

func (t LookupTable) String() string {
	return string(t)
}

// Routing keys for moderation events.
const (
	RoutingKeyRecordingCreated = "recording.created"
	RoutingKeyRecordingDeleted = "recording.deleted"
)

const (
	ModerationActionCreated = "created"
	ModerationActionDeleted = "deleted"
)
