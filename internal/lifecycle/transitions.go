package lifecycle

import (
	"github.com/Rrens/dietplan/internal/domain"
)

// Event is a review action fired at a plan
type Event string

const (
	EventSubmit         Event = "submit"
	EventRequestChanges Event = "request_changes"
	EventApprove        Event = "approve"
	EventReject         Event = "reject"
	EventPublish        Event = "publish"
)

// transitions lists, per source status, the events it accepts and their target.
// rejected has no entry: nothing leaves it. published only accepts a reissue.
var transitions = map[domain.PlanStatus]map[Event]domain.PlanStatus{
	domain.StatusDraft: {
		EventSubmit:         domain.StatusPendingReview,
		EventRequestChanges: domain.StatusDraft,
		EventApprove:        domain.StatusApproved,
		EventReject:         domain.StatusRejected,
	},
	domain.StatusPendingReview: {
		EventRequestChanges: domain.StatusDraft,
		EventApprove:        domain.StatusApproved,
		EventReject:         domain.StatusRejected,
	},
	domain.StatusApproved: {
		EventPublish: domain.StatusPublished,
	},
	domain.StatusPublished: {
		EventPublish: domain.StatusPublished,
	},
}

// Next returns the status reached by firing event from status from
func Next(from domain.PlanStatus, event Event) (domain.PlanStatus, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return "", &domain.InvalidTransitionError{From: from, Event: string(event)}
}

// Editable reports whether the customization overlay may still change
func Editable(status domain.PlanStatus) bool {
	return status == domain.StatusDraft || status == domain.StatusPendingReview
}
