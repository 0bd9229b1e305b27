package domain

// BindingStatus is the progress of starting work on an issue
type BindingStatus string

const (
	BindingDetecting BindingStatus = "detecting"
	BindingReady     BindingStatus = "ready"
	BindingActive    BindingStatus = "active"
	BindingDone      BindingStatus = "done"
)

// Binding ties an external issue to the sessions created to work it
type Binding struct {
	IssueID         string        `json:"issueId"`
	IssueIdentifier string        `json:"issueIdentifier"`
	SessionIDs      []string      `json:"sessionIds"`
	Repos           []string      `json:"repos"`
	Status          BindingStatus `json:"status"`
}

// Clone returns a deep copy of the binding
func (b Binding) Clone() Binding {
	out := b
	out.SessionIDs = append([]string(nil), b.SessionIDs...)
	out.Repos = append([]string(nil), b.Repos...)
	return out
}
