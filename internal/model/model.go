// Package model defines domain entities shared by the API client, session
// manager and list controllers.
package model

import "time"

// Role distinguishes the two account types served by the clinic API.
type Role string

const (
	RoleDoctor  Role = "DOCTOR"
	RolePatient Role = "PATIENT"
)

// SubmissionStatus is the server-side review state of a submission.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "PENDING"
	StatusInProgress SubmissionStatus = "IN_PROGRESS"
	StatusDone       SubmissionStatus = "DONE"
)

// User is an authenticated identity as returned by the API. The patient-only
// fields are pointers: the server sends null for fields a patient has not
// filled in yet, and they are never required for doctors.
type User struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Token       string   `json:"token"`
	Role        Role     `json:"role"`
	PhoneNumber *string  `json:"phone_number"`
	Weight      *float64 `json:"weight"`
	Height      *float64 `json:"height"`
	OtherInfo   *string  `json:"other_information"`
}

// UserPatch is a partial User used for profile updates. Nil fields are left
// untouched by Apply.
type UserPatch struct {
	Name        *string  `json:"name,omitempty"`
	Email       *string  `json:"email,omitempty"`
	PhoneNumber *string  `json:"phone_number,omitempty"`
	Weight      *float64 `json:"weight,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	OtherInfo   *string  `json:"other_information,omitempty"`
}

// Apply merges the patch's non-nil fields into the user.
func (u *User) Apply(p UserPatch) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = p.PhoneNumber
	}
	if p.Weight != nil {
		u.Weight = p.Weight
	}
	if p.Height != nil {
		u.Height = p.Height
	}
	if p.OtherInfo != nil {
		u.OtherInfo = p.OtherInfo
	}
}

// Submission is one symptom report filed by a patient.
type Submission struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Symptoms  string           `json:"symptoms"`
	Status    SubmissionStatus `json:"status"`
	Doctor    *User            `json:"doctor"`
	Patient   *User            `json:"patient"`
	CreatedAt string           `json:"created_at"`
}

// CreatedAtTime parses the wire timestamp. The contract does not pin the
// server's layout, so a few common ones are tried; the zero time is returned
// when none match.
func (s Submission) CreatedAtTime() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s.CreatedAt); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Pagination is the paging block the list endpoint returns alongside data.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
}
