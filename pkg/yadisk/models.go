package yadisk

// FolderStatus tells how EnsureFolder satisfied the request
type FolderStatus int

const (
	// FolderCreated means this call created the folder
	FolderCreated FolderStatus = iota
	// FolderExisted means the folder was already there
	FolderExisted
)

func (s FolderStatus) String() string {
	switch s {
	case FolderCreated:
		return "created"
	case FolderExisted:
		return "existed"
	default:
		return "unknown"
	}
}

// UploadReceipt is returned once the service has accepted an upload
type UploadReceipt struct {
	// Path is the destination path on the disk
	Path string
	// OperationHref is the status URL of the asynchronous copy, if returned
	OperationHref string
}

// link is the body of 201 and 202 replies
type link struct {
	Href      string `json:"href"`
	Method    string `json:"method"`
	Templated bool   `json:"templated"`
}

// apiError is the body of error replies
type apiError struct {
	Message     string `json:"message"`
	Description string `json:"description"`
	Error       string `json:"error"`
}
