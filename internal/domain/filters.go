package domain

// HR 搜索学员时的筛选条件，空的多选集合表示不对该字段做限制
type StudentFilters struct {
	Search                string         `json:"search"`
	CourseCompletion      []int32        `json:"courseCompletion"`
	CourseEngagement      []int32        `json:"courseEngagement"`
	ProjectDegree         []int32        `json:"projectDegree"`
	TeamProjectDegree     []int32        `json:"teamProjectDegree"`
	ExpectedTypeWork      []TypeWork     `json:"expectedTypeWork"`
	ExpectedContractType  []ContractType `json:"expectedContractType"`
	MinSalary             float64        `json:"minSalary"`
	MaxSalary             float64        `json:"maxSalary"`
	MonthsOfCommercialExp int32          `json:"monthsOfCommercialExp"`
	CanTakeApprenticeship bool           `json:"canTakeApprenticeship"`
}

// 管理员的全局用户搜索条件
type AdminFilters struct {
	Search         string `json:"search"`
	Role           *Role  `json:"role"`
	AccountBlocked *bool  `json:"accountBlocked"`
	SortTarget     string `json:"sortTarget"`
	SortDescending bool   `json:"sortDescending"`
}
