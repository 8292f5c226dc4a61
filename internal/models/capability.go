package models

// Capability is a relation family a kind may or may not own.
type Capability uint8

const (
	CapActivities Capability = 1 << iota
	CapEngagements
	CapTasks
	CapCommunications
	CapWorkflowEvents
)

var capabilities = map[Kind]Capability{
	KindLead:    CapActivities | CapEngagements | CapTasks | CapCommunications | CapWorkflowEvents,
	KindContact: CapActivities | CapEngagements | CapTasks | CapCommunications | CapWorkflowEvents,
	KindClient:  CapActivities | CapEngagements | CapCommunications,
	KindDeal:    CapActivities | CapEngagements | CapTasks | CapCommunications | CapWorkflowEvents,
	KindProject: CapActivities | CapEngagements | CapTasks | CapWorkflowEvents,
}

// Supports reports whether records of kind own the given relation family.
func Supports(kind Kind, c Capability) bool {
	return capabilities[kind]&c == c
}
