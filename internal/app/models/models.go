package models

// SessionType distinguishes weekly term sessions from one-off special programmes
type SessionType string

const (
	SessionTypeTerm    SessionType = "term"
	SessionTypeSpecial SessionType = "special"
)

// IsValid reports whether the session type is known
func (t SessionType) IsValid() bool {
	return t == SessionTypeTerm || t == SessionTypeSpecial
}

// BlockType is one of the five canonical blocks of a year
type BlockType string

const (
	BlockTypeTerm1   BlockType = "term_1"
	BlockTypeTerm2   BlockType = "term_2"
	BlockTypeTerm3   BlockType = "term_3"
	BlockTypeTerm4   BlockType = "term_4"
	BlockTypeSpecial BlockType = "special"
)

// BlockTypes lists the block types in calendar order
var BlockTypes = []BlockType{BlockTypeTerm1, BlockTypeTerm2, BlockTypeTerm3, BlockTypeTerm4, BlockTypeSpecial}

// IsValid reports whether the block type is known
func (t BlockType) IsValid() bool {
	for _, bt := range BlockTypes {
		if t == bt {
			return true
		}
	}
	return false
}

// StaffRole defines what a staff member may do
type StaffRole string

const (
	StaffRoleAdmin StaffRole = "admin"
	StaffRoleStaff StaffRole = "staff"
)

// SignupStatus tracks a child's place in a session
type SignupStatus string

const (
	SignupStatusPending    SignupStatus = "pending"
	SignupStatusConfirmed  SignupStatus = "confirmed"
	SignupStatusWaitlisted SignupStatus = "waitlisted"
	SignupStatusWithdrawn  SignupStatus = "withdrawn"
)
