package domain

// SuiteDescriptor is an incoming suite before reconciliation. ParentPath is
// the display path of the parent ("UI/Sync"); empty means a root suite.
type SuiteDescriptor struct {
	Name        string
	Description string
	ParentPath  string
}

// CaseDescriptor is an incoming test case before merging. SuitePath, when
// set, is the full path of the owning suite and wins over SuiteName, which may
// be a simple name or a path.
type CaseDescriptor struct {
	Title            string
	SuiteName        string
	SuitePath        string
	TypeName         string
	TypeID           *int64
	PriorityName     string
	PriorityID       *int64
	Steps            []Step
	Tags             []string
	AutotestMapping  map[string]string
	Attachments      []string
	Preconditions    string
	Estimate         string
	Status           string
	Severity         string
	AutomationStatus AutomationStatus
}

// Batch is one import's worth of descriptors. Hierarchical batches carry
// parent paths on their suites; flat batches create every suite at the root.
type Batch struct {
	Hierarchical bool
	Suites       []SuiteDescriptor
	Cases        []CaseDescriptor
}
