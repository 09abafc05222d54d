package domain

import (
	"fmt"
	"time"
)

// RequestStatus enumerates lifecycle states for service requests.
type RequestStatus uint8

const (
	// StatusUnknown marks a persisted label that no longer maps to a known state.
	StatusUnknown RequestStatus = iota
	StatusNew
	StatusInAnalysis
	StatusInProgress
	StatusCompleted
)

// StatusMappingVersion identifies statusLabelsV1. Renaming a label requires a
// new version and a data migration.
const StatusMappingVersion = 1

var statusLabelsV1 = [...]string{
	StatusUnknown:    "",
	StatusNew:        "Novo",
	StatusInAnalysis: "Em análise",
	StatusInProgress: "Em progresso",
	StatusCompleted:  "Concluído",
}

// RequestStatuses lists the valid states in workflow order.
func RequestStatuses() []RequestStatus {
	return []RequestStatus{StatusNew, StatusInAnalysis, StatusInProgress, StatusCompleted}
}

// ParseStatus maps a persisted or submitted label to its status.
func ParseStatus(label string) (RequestStatus, error) {
	for _, status := range RequestStatuses() {
		if statusLabelsV1[status] == label {
			return status, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown request status %q", label)
}

// Label returns the persisted and displayed text of the status.
func (s RequestStatus) Label() string {
	if int(s) < len(statusLabelsV1) {
		return statusLabelsV1[s]
	}
	return ""
}

func (s RequestStatus) Valid() bool {
	return s >= StatusNew && s <= StatusCompleted
}

func (s RequestStatus) String() string {
	if s.Valid() {
		return s.Label()
	}
	return fmt.Sprintf("RequestStatus(%d)", uint8(s))
}

// RequestOwner carries the owner's contact fields for admin listings.
type RequestOwner struct {
	Name  string
	Email string
}

// Request is a contact-form submission or a client's service request.
type Request struct {
	ID              string
	OwnerID         *string
	Owner           *RequestOwner
	ContactName     string
	ContactEmail    string
	Phone           *string
	ServiceInterest string
	Details         string
	Status          RequestStatus
	IsContact       bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RequestTotals partitions a request set by status.
type RequestTotals struct {
	Total      int
	New        int
	InAnalysis int
	InProgress int
	Completed  int
}

// TallyRequests counts each request in at most one status bucket. Requests
// with an unknown status only contribute to Total.
func TallyRequests(requests []Request) RequestTotals {
	var totals RequestTotals
	for i := range requests {
		totals.Total++
		switch requests[i].Status {
		case StatusNew:
			totals.New++
		case StatusInAnalysis:
			totals.InAnalysis++
		case StatusInProgress:
			totals.InProgress++
		case StatusCompleted:
			totals.Completed++
		}
	}
	return totals
}
