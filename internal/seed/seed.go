package seed

import (
	"log/slog"
	"math/rand"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/megak-dev/headhunter/backend/internal/domain"
	"github.com/megak-dev/headhunter/backend/internal/repository"
	"github.com/megak-dev/headhunter/backend/internal/utils"
)

var typeWorks = []domain.TypeWork{
	domain.TypeWorkIrrelevant,
	domain.TypeWorkOnSite,
	domain.TypeWorkRemote,
	domain.TypeWorkHybrid,
	domain.TypeWorkRelocation,
}

var contractTypes = []domain.ContractType{
	domain.ContractNoPreference,
	domain.ContractEmployment,
	domain.ContractB2B,
	domain.ContractMandate,
	domain.ContractWork,
}

var cities = []string{"广州", "深圳", "珠海", "北京", "上海", "杭州", "成都"}

var companies = []string{"星河科技", "南山软件", "白云网络", "珠江数据", "云栖信息"}

func randomBaseUser(password string, emailDomain string) (*domain.User, error) {
	fullName := utils.GenerateRandomChineseName()
	username := utils.GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// 中文姓名的第一个字符是姓
	nameRunes := []rune(fullName)

	return &domain.User{
		ID:           uuid.NewString(),
		Email:        username + "@" + emailDomain,
		PasswordHash: string(passwordHash),
		FirstName:    string(nameRunes[1:]),
		LastName:     string(nameRunes[:1]),
		Avatar:       domain.DefaultAvatar,
	}, nil
}

// InsertRandomStudents 插入 n 个已完成注册的随机学员
func InsertRandomStudents(repo *repository.Repository, n int, password string, emailDomain string) error {
	for i := 0; i < n; i++ {
		user, err := randomBaseUser(password, emailDomain)
		if err != nil {
			return err
		}

		user.Role = domain.RoleStudent
		user.Student = &domain.StudentProfile{
			CourseCompletion:      int32(rand.Intn(6)),
			CourseEngagement:      int32(rand.Intn(6)),
			ProjectDegree:         int32(rand.Intn(6)),
			TeamProjectDegree:     int32(rand.Intn(6)),
			ExpectedTypeWork:      typeWorks[rand.Intn(len(typeWorks))],
			ExpectedContractType:  contractTypes[rand.Intn(len(contractTypes))],
			TargetWorkCity:        cities[rand.Intn(len(cities))],
			ExpectedSalary:        float64(rand.Intn(30000) + 5000),
			MonthsOfCommercialExp: int32(rand.Intn(36)),
			CanTakeApprenticeship: rand.Intn(2) == 0,
			Status:                domain.StudentStatusAvailable,
		}

		if err := repo.CreateUser(user); err != nil {
			return err
		}
		slog.Info("已插入随机学员", "email", user.Email)
	}

	return nil
}

// InsertRandomHRs 插入 n 个已完成注册的随机 HR
func InsertRandomHRs(repo *repository.Repository, n int, password string, emailDomain string) error {
	for i := 0; i < n; i++ {
		user, err := randomBaseUser(password, emailDomain)
		if err != nil {
			return err
		}

		user.Role = domain.RoleHR
		user.HR = &domain.HRProfile{
			Company:             companies[rand.Intn(len(companies))],
			MaxReservedStudents: int32(rand.Intn(5) + 1),
		}

		if err := repo.CreateUser(user); err != nil {
			return err
		}
		slog.Info("已插入随机 HR", "email", user.Email, "company", user.HR.Company)
	}

	return nil
}
