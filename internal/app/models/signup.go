package models

import "time"

// Signup is a child's place in a session, joined with the caregiver and
// child it belongs to
type Signup struct {
	ID          int64        `json:"id"`
	SessionID   int64        `json:"sessionId"`
	ChildID     int64        `json:"childId"`
	CaregiverID int64        `json:"caregiverId"`
	Status      SignupStatus `json:"status"`
	CreatedAt   time.Time    `json:"createdAt"`
	WithdrawnAt *time.Time   `json:"withdrawnAt,omitempty"`

	StudentName  string  `json:"studentName"`
	GuardianName string  `json:"guardianName"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
}

// Recipient returns the caregiver as a notification recipient
func (s *Signup) Recipient() SignupRecipient {
	r := SignupRecipient{SignupID: s.ID, CaregiverName: s.GuardianName, ChildName: s.StudentName}
	if s.Email != nil {
		r.CaregiverEmail = *s.Email
	}
	return r
}

// SignupRecipient is a caregiver to contact about a session change
type SignupRecipient struct {
	SignupID       int64  `json:"signupId"`
	CaregiverName  string `json:"caregiverName"`
	CaregiverEmail string `json:"caregiverEmail"`
	ChildName      string `json:"childName"`
}
