package planner

type Action string

const (
	ActionCopy   Action = "copy"
	ActionDelete Action = "delete"
	ActionSkip   Action = "skip"
)

const (
	ReasonNewFile         = "new file"
	ReasonSizeDiffers     = "size differs"
	ReasonChecksumDiffers = "checksum differs"
	ReasonIdentical       = "identical"
	ReasonDeletedInSource = "deleted in source"
	ReasonExistsInSource  = "exists in source"
)

// Item is the decision taken for one relative path
type Item struct {
	Action      Action
	RelPath     string
	SourcePath  string
	ReplicaPath string
	Size        int64
	Reason      string
}

// Roots are the two directory trees being mirrored
type Roots struct {
	Source  string
	Replica string
}
