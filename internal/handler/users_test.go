package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/megak-dev/headhunter/backend/internal/domain"
)

func TestApplyUserEdits(t *testing.T) {
	t.Run("更新通用字段和学员资料", func(t *testing.T) {
		user := &domain.User{
			ID:        "s1",
			Email:     "old@example.com",
			FirstName: "旧名",
			LastName:  "张",
			Role:      domain.RoleStudent,
			Student: &domain.StudentProfile{
				ExpectedTypeWork:     domain.TypeWorkIrrelevant,
				ExpectedContractType: domain.ContractNoPreference,
				Status:               domain.StudentStatusAvailable,
			},
		}

		require.NoError(t, applyUserEdits(user, editUserRequest{
			Email:                 "new@example.com",
			FirstName:             "新名",
			LastName:              "张",
			ExpectedTypeWork:      "REMOTE",
			ExpectedContractType:  "B2B",
			TargetWorkCity:        "广州",
			ExpectedSalary:        12000,
			MonthsOfCommercialExp: 6,
			CanTakeApprenticeship: true,
		}))

		assert.Equal(t, "new@example.com", user.Email)
		assert.Equal(t, "新名", user.FirstName)
		assert.Equal(t, domain.TypeWorkRemote, user.Student.ExpectedTypeWork)
		assert.Equal(t, domain.ContractB2B, user.Student.ExpectedContractType)
		assert.Equal(t, "广州", user.Student.TargetWorkCity)
		assert.Equal(t, float64(12000), user.Student.ExpectedSalary)
		assert.Equal(t, int32(6), user.Student.MonthsOfCommercialExp)
		assert.True(t, user.Student.CanTakeApprenticeship)
		// 没有提交状态时保持原状
		assert.Equal(t, domain.StudentStatusAvailable, user.Student.Status)
	})

	t.Run("密码留空时保持原密码哈希", func(t *testing.T) {
		user := &domain.User{
			ID:           "s1",
			Email:        "a@example.com",
			Role:         domain.RoleStudent,
			PasswordHash: "原哈希",
			Student:      &domain.StudentProfile{},
		}

		require.NoError(t, applyUserEdits(user, editUserRequest{
			Email:     "a@example.com",
			FirstName: "名",
			LastName:  "王",
		}))
		assert.Equal(t, "原哈希", user.PasswordHash)

		require.NoError(t, applyUserEdits(user, editUserRequest{
			Email:     "a@example.com",
			FirstName: "名",
			LastName:  "王",
			Password:  "new-password",
		}))
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("new-password")))
	})

	t.Run("更新 HR 资料且不碰学员字段", func(t *testing.T) {
		user := &domain.User{
			ID:    "hr1",
			Email: "hr@example.com",
			Role:  domain.RoleHR,
			HR: &domain.HRProfile{
				Company:             "旧公司",
				MaxReservedStudents: 1,
			},
		}

		require.NoError(t, applyUserEdits(user, editUserRequest{
			Email:               "hr@example.com",
			FirstName:           "名",
			LastName:            "李",
			Company:             "新公司",
			MaxReservedStudents: 5,
		}))

		assert.Equal(t, "新公司", user.HR.Company)
		assert.Equal(t, int32(5), user.HR.MaxReservedStudents)
		assert.Nil(t, user.Student)
	})
}
