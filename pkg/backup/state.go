package backup

// State is a step of a backup run
type State int

const (
	StateValidatingCredentials State = iota
	StateFetchingMetadata
	StateNoPhotosFound
	StateProvisioningFolder
	StateUploadingItems
	StateFinalizing
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateValidatingCredentials: "validating_credentials",
	StateFetchingMetadata:      "fetching_metadata",
	StateNoPhotosFound:         "no_photos_found",
	StateProvisioningFolder:    "provisioning_folder",
	StateUploadingItems:        "uploading_items",
	StateFinalizing:            "finalizing",
	StateDone:                  "done",
	StateFailed:                "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition follows s
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed || s == StateNoPhotosFound
}
