package types

// AppType specifies app type.
type AppType string

// Watcher AppType enums.
const (
	Watcher AppType = "watch"
)

// SysVar specifies the system variables.
type SysVar string

// SysVarSchemaVersion SysVar enums.
const (
	SysVarSchemaVersion SysVar = "schema_version"
)

// TableName specifies table name.
type TableName string

// Progress table keys.
const (
	CurtailmentRecord TableName = "curtailment_record"
)

// StackSide selects one of the two settlement stacks of a period.
type StackSide string

// StackSide enums.
const (
	BidStack   StackSide = "bid"
	OfferStack StackSide = "offer"
)
