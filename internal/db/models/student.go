package models

import "time"

// Student is the permit owner. The permit subsystem only reads students;
// their lifecycle belongs to the enrollment side of the system.
type Student struct {
	ID          string `gorm:"primaryKey"`
	SchoolID    string `gorm:"unique;not null"`
	FirstName   string `gorm:"not null"`
	LastName    string `gorm:"not null"`
	Email       string `gorm:"unique;not null"`
	PhoneNumber string
	Program     string
	YearLevel   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PublicProfile is the student projection returned to scanning staff.
type PublicProfile struct {
	ID        string `json:"id"`
	SchoolID  string `json:"schoolId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Program   string `json:"program"`
	YearLevel int    `json:"yearLevel"`
}

func (s *Student) Public() PublicProfile {
	return PublicProfile{
		ID:        s.ID,
		SchoolID:  s.SchoolID,
		FirstName: s.FirstName,
		LastName:  s.LastName,
		Email:     s.Email,
		Program:   s.Program,
		YearLevel: s.YearLevel,
	}
}
