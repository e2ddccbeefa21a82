package domain

import (
	"time"
)

type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleHR      Role = "HR"
	RoleAdmin   Role = "ADMIN"
)

type StudentStatus string

const (
	StudentStatusAvailable StudentStatus = "AVAILABLE"
	StudentStatusBusy      StudentStatus = "BUSY"
	StudentStatusHired     StudentStatus = "HIRED"
)

type TypeWork string

const (
	TypeWorkIrrelevant TypeWork = "IRRELEVANT"
	TypeWorkOnSite     TypeWork = "ON_SITE"
	TypeWorkRemote     TypeWork = "REMOTE"
	TypeWorkHybrid     TypeWork = "HYBRID"
	TypeWorkRelocation TypeWork = "RELOCATION"
)

type ContractType string

const (
	ContractNoPreference ContractType = "NO_PREFERENCES"
	ContractEmployment   ContractType = "EMPLOYMENT"
	ContractB2B          ContractType = "B2B"
	ContractMandate      ContractType = "MANDATE"
	ContractWork         ContractType = "CONTRACT_WORK"
)

const DefaultAvatar = "https://cdn.pixabay.com/photo/2013/07/13/10/44/man-157699_1280.png"

// 学员的扩展资料，仅当 Role 为 STUDENT 时非空
type StudentProfile struct {
	CourseCompletion      int32         `json:"courseCompletion"`
	CourseEngagement      int32         `json:"courseEngagement"`
	ProjectDegree         int32         `json:"projectDegree"`
	TeamProjectDegree     int32         `json:"teamProjectDegree"`
	BonusProjectUrls      []string      `json:"bonusProjectUrls"`
	ExpectedTypeWork      TypeWork      `json:"expectedTypeWork"`
	ExpectedContractType  ContractType  `json:"expectedContractType"`
	TargetWorkCity        string        `json:"targetWorkCity"`
	ExpectedSalary        float64       `json:"expectedSalary"`
	MonthsOfCommercialExp int32         `json:"monthsOfCommercialExp"`
	CanTakeApprenticeship bool          `json:"canTakeApprenticeship"`
	Status                StudentStatus `json:"status"`
}

// HR 的扩展资料，仅当 Role 为 HR 时非空
type HRProfile struct {
	Company             string `json:"company"`
	MaxReservedStudents int32  `json:"maxReservedStudents"`
}

type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"`
	FirstName         string    `json:"firstName"`
	LastName          string    `json:"lastName"`
	Role              Role      `json:"role"`
	AccountBlocked    bool      `json:"accountBlocked"`
	Avatar            string    `json:"avatar"`
	ActivationLink    *string   `json:"-"`
	ResetPasswordLink *string   `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	Version           int32     `json:"-"`

	Student *StudentProfile `json:"student,omitempty"`
	HR      *HRProfile      `json:"hr,omitempty"`
}
